package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/petems/readaloud-tray/internal/clipboard"
	"github.com/petems/readaloud-tray/internal/config"
	"github.com/petems/readaloud-tray/internal/speech"
	"github.com/petems/readaloud-tray/internal/webtext"
	"github.com/rs/zerolog"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetSpeaking()
	SetPaused()
	SetError()
}

// HotkeyRegistry is the part of hotkey.Manager the app drives.
type HotkeyRegistry interface {
	Register(spec string, callback func()) error
	Unregister(spec string)
	Start() error
	Stop()
}

// PageFetcher returns the readable text of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Config struct {
	Speaker       speech.Speaker
	Clipboard     clipboard.Reader
	Pages         PageFetcher // Optional - URLs are read literally when nil
	Hotkeys       HotkeyRegistry
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

type App struct {
	speaker speech.Speaker
	clip    clipboard.Reader
	pages   PageFetcher
	hotkeys HotkeyRegistry
	log     zerolog.Logger
	status  StatusUpdater

	mu             sync.Mutex
	cfg            *config.Config
	bound          map[string]string // action -> spec
	hotkeysEnabled bool
}

func New(cfg Config) *App {
	return &App{
		speaker:        cfg.Speaker,
		clip:           cfg.Clipboard,
		pages:          cfg.Pages,
		hotkeys:        cfg.Hotkeys,
		cfg:            cfg.Config,
		log:            cfg.Logger,
		status:         cfg.StatusUpdater,
		bound:          make(map[string]string),
		hotkeysEnabled: true,
	}
}

// SetStatusUpdater sets the status target (for circular dependency resolution)
func (a *App) SetStatusUpdater(status StatusUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
}

// BindHotkeys makes the registry match bindings (action -> spec). Specs that
// fail to parse are reported together; the rest stay bound. Capture is
// restarted afterwards because every rebind leaves the listener stopped.
func (a *App) BindHotkeys(bindings map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	next := make(map[string]string, len(bindings))
	for action, spec := range bindings {
		if _, ok := a.actionFunc(action); !ok {
			errs = append(errs, fmt.Errorf("unknown action %q", action))
			continue
		}
		if spec != "" {
			next[action] = spec
		}
	}

	for action, spec := range a.bound {
		if next[action] != spec {
			a.hotkeys.Unregister(spec)
			delete(a.bound, action)
			a.log.Info().Str("action", action).Str("hotkey", spec).Msg("Unbound hotkey")
		}
	}

	for _, action := range sortedKeys(next) {
		spec := next[action]
		if a.bound[action] == spec {
			continue
		}
		cb, _ := a.actionFunc(action)
		if err := a.hotkeys.Register(spec, cb); err != nil {
			errs = append(errs, fmt.Errorf("bind %s: %w", action, err))
			continue
		}
		a.bound[action] = spec
		a.log.Info().Str("action", action).Str("hotkey", spec).Msg("Bound hotkey")
	}

	if a.hotkeysEnabled {
		if err := a.hotkeys.Start(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ApplyConfig swaps in a reloaded config.
func (a *App) ApplyConfig(cfg *config.Config) error {
	a.speaker.Configure(cfg.Speech)

	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	return a.BindHotkeys(cfg.Hotkeys)
}

// Bindings returns the hotkeys currently bound, keyed by action.
func (a *App) Bindings() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]string, len(a.bound))
	for action, spec := range a.bound {
		out[action] = spec
	}
	return out
}

// SetHotkeysEnabled pauses or resumes global hotkey capture.
func (a *App) SetHotkeysEnabled(enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !enabled {
		a.hotkeysEnabled = false
		a.hotkeys.Stop()
		a.log.Info().Msg("Hotkeys paused")
		a.setStatusLocked(StatusUpdater.SetPaused)
		return nil
	}

	// Stays paused until capture is actually running.
	if err := a.hotkeys.Start(); err != nil {
		a.setStatusLocked(StatusUpdater.SetError)
		return fmt.Errorf("resume hotkeys: %w", err)
	}
	a.hotkeysEnabled = true
	a.log.Info().Msg("Hotkeys resumed")
	a.setStatusLocked(StatusUpdater.SetIdle)
	return nil
}

func (a *App) HotkeysEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hotkeysEnabled
}

// ReadClipboard speaks the clipboard text in the background. A clipboard
// holding a single http(s) URL is read as the page behind it.
func (a *App) ReadClipboard() {
	text, err := a.clip.ReadText()
	if err != nil {
		a.log.Warn().Err(err).Msg("Nothing to read")
		a.setStatus(StatusUpdater.SetError)
		return
	}
	go a.speak(text)
}

// ExportClipboard saves the clipboard text as audio in the configured
// output directory, in the background.
func (a *App) ExportClipboard() {
	text, err := a.clip.ReadText()
	if err != nil {
		a.log.Warn().Err(err).Msg("Nothing to export")
		a.setStatus(StatusUpdater.SetError)
		return
	}
	go a.export(text)
}

// ReadText speaks text in the background.
func (a *App) ReadText(text string) {
	go a.speak(text)
}

func (a *App) speak(text string) {
	a.setStatus(StatusUpdater.SetSpeaking)

	ctx := context.Background()
	text, err := a.resolve(ctx, text)
	if err == nil {
		err = a.speaker.Speak(ctx, text)
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Speech failed")
		a.setStatus(StatusUpdater.SetError)
		return
	}

	// A newer utterance may have started meanwhile.
	if !a.speaker.Speaking() {
		a.setStatus(StatusUpdater.SetIdle)
	}
}

func (a *App) export(text string) {
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()

	ctx := context.Background()
	dir, err := cfg.ExportDir()
	if err == nil {
		text, err = a.resolve(ctx, text)
	}
	var path string
	if err == nil {
		path, err = a.speaker.Export(ctx, text, dir)
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Export failed")
		a.setStatus(StatusUpdater.SetError)
		return
	}
	a.log.Info().Str("path", path).Msg("Saved audio")
}

// resolve replaces a URL with the text of the page it points to.
func (a *App) resolve(ctx context.Context, text string) (string, error) {
	if a.pages == nil || !webtext.IsURL(text) {
		return text, nil
	}
	page, err := a.pages.Fetch(ctx, strings.TrimSpace(text))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return page, nil
}

func (a *App) StopSpeaking() {
	if err := a.speaker.Stop(); err != nil {
		a.log.Error().Err(err).Msg("Failed to stop speech")
		a.setStatus(StatusUpdater.SetError)
		return
	}
	a.setStatus(StatusUpdater.SetIdle)
}

func (a *App) IsSpeaking() bool {
	return a.speaker.Speaking()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.hotkeys.Stop()
	if err := a.speaker.Stop(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// actionFunc maps an action name to its hotkey callback.
func (a *App) actionFunc(action string) (func(), bool) {
	switch action {
	case config.ActionReadClipboard:
		return a.ReadClipboard, true
	case config.ActionStopSpeaking:
		return a.StopSpeaking, true
	case config.ActionExportClipboard:
		return a.ExportClipboard, true
	}
	return nil, false
}

func (a *App) setStatus(update func(StatusUpdater)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setStatusLocked(update)
}

func (a *App) setStatusLocked(update func(StatusUpdater)) {
	if a.status != nil {
		update(a.status)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
