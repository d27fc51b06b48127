package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/readaloud-tray/internal/app"
	"github.com/petems/readaloud-tray/internal/clipboard"
	"github.com/petems/readaloud-tray/internal/config"
	"github.com/petems/readaloud-tray/internal/hotkey"
	"github.com/petems/readaloud-tray/internal/hotkey/xlistener"
	"github.com/petems/readaloud-tray/internal/logging"
	"github.com/petems/readaloud-tray/internal/permissions"
	"github.com/petems/readaloud-tray/internal/speech"
	"github.com/petems/readaloud-tray/internal/tray"
	"github.com/petems/readaloud-tray/internal/webtext"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfgPath := config.Path()
	cfg, err := config.LoadFrom(cfgPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Str("path", cfgPath).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS only delivers global hotkeys to trusted apps
	if err := permissions.EnsurePermissions(); err != nil {
		log.Warn().Err(err).Msg("Hotkeys will not fire until accessibility access is granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	speaker := speech.New(cfg.Speech, log)

	hkManager := hotkey.NewManager(
		hotkey.WithLogger(log),
		hotkey.WithListenerFactory(xlistener.Factory(log)),
		hotkey.WithAutoRestart(cfg.AutoRestartHotkeys),
	)

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfgPath, Version, Commit, log) // App reference set below

	application := app.New(app.Config{
		Speaker:       speaker,
		Clipboard:     clipboard.New(),
		Pages:         webtext.New(log),
		Hotkeys:       hkManager,
		Config:        cfg,
		Logger:        log,
		StatusUpdater: trayUI,
	})

	// Set app reference in tray
	trayUI.SetApp(application)

	// Registering a hotkey on macOS dispatches onto the main queue, which
	// only drains once the tray loop is running.
	trayUI.SetOnReady(func() {
		if err := application.BindHotkeys(cfg.Hotkeys); err != nil {
			if errors.Is(err, hotkey.ErrInvalidSpec) {
				log.Fatal().Err(err).Msg("Invalid hotkey in config")
			}
			log.Error().Err(err).Msg("Failed to register hotkeys")
		}
		trayUI.RefreshHotkeys()
	})

	err = config.Watch(ctx, cfgPath,
		func(next *config.Config) {
			log.Info().Msg("Config changed, reloading")
			if err := application.ApplyConfig(next); err != nil {
				log.Error().Err(err).Msg("Failed to apply config")
			}
			trayUI.RefreshHotkeys()
		},
		func(err error) {
			log.Warn().Err(err).Msg("Ignoring config change")
		},
	)
	if err != nil {
		log.Warn().Err(err).Msg("Config reload disabled")
	}

	log.Info().Str("config", cfgPath).Msg("Read Aloud starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		trayUI.Quit()
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}
