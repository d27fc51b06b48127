package tray

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/getlantern/systray"
	"github.com/petems/readaloud-tray/internal/app"
	"github.com/petems/readaloud-tray/internal/config"
	"github.com/rs/zerolog"
)

type UI struct {
	app        *app.App
	configPath string
	version    string
	commit     string
	log        zerolog.Logger
	onReady    func()

	// Menu items
	mRead    *systray.MenuItem
	mStop    *systray.MenuItem
	mExport  *systray.MenuItem
	mHotkeys *systray.MenuItem
	mHint    *systray.MenuItem
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
}

func (u *UI) SetSpeaking() {
	u.updateStatus("speaking")
}

func (u *UI) SetPaused() {
	u.updateStatus("paused")
}

func (u *UI) SetError() {
	u.updateStatus("error")
}

func New(application *app.App, configPath, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		app:        application,
		configPath: configPath,
		version:    version,
		commit:     commit,
		log:        log,
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

// SetOnReady sets a hook run once the tray loop is up. It runs on its own
// goroutine so that it may wait on work dispatched to the main thread.
func (u *UI) SetOnReady(hook func()) {
	u.onReady = hook
}

// Run blocks on the tray event loop. It must be called from the main thread.
func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.ready, u.onExit)
	return nil
}

func (u *UI) Quit() {
	systray.Quit()
}

func (u *UI) ready() {
	u.updateStatus("idle")
	systray.SetTooltip(fmt.Sprintf("Read Aloud %s", u.version))

	u.mRead = systray.AddMenuItem("Read Clipboard", "Read the clipboard text aloud")
	u.mStop = systray.AddMenuItem("Stop Speaking", "Interrupt the current reading")
	u.mExport = systray.AddMenuItem("Export Clipboard", "Save the clipboard text as audio")
	systray.AddSeparator()

	u.mHotkeys = systray.AddMenuItemCheckbox("Hotkeys Enabled", "Listen for global shortcuts", u.app.HotkeysEnabled())
	u.mHint = systray.AddMenuItem("", "")
	u.mHint.Disable()
	u.RefreshHotkeys()

	systray.AddSeparator()
	mConfig := systray.AddMenuItem("Open Config", "Edit settings and shortcuts")
	mAbout := systray.AddMenuItem("About", "About Read Aloud")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mConfig, mAbout, mQuit)

	u.runReadyHook()
}

func (u *UI) runReadyHook() {
	if u.onReady == nil {
		return
	}
	go u.onReady()
}

func (u *UI) handleEvents(mConfig, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mRead.ClickedCh:
			u.app.ReadClipboard()
		case <-u.mStop.ClickedCh:
			u.app.StopSpeaking()
		case <-u.mExport.ClickedCh:
			u.app.ExportClipboard()
		case <-u.mHotkeys.ClickedCh:
			u.toggleHotkeys()
		case <-mConfig.ClickedCh:
			u.openConfig()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

// RefreshHotkeys updates the shortcut hint after bindings change.
func (u *UI) RefreshHotkeys() {
	if u.mHint == nil {
		return
	}
	u.mHint.SetTitle(hotkeyHint(u.app.Bindings()))
}

func (u *UI) toggleHotkeys() {
	enabled := !u.app.HotkeysEnabled()
	if err := u.app.SetHotkeysEnabled(enabled); err != nil {
		u.log.Error().Err(err).Msg("Failed to toggle hotkeys")
		return
	}
	if enabled {
		u.mHotkeys.Check()
	} else {
		u.mHotkeys.Uncheck()
	}
}

func (u *UI) openConfig() {
	name := "xdg-open"
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name = "notepad"
	}
	if err := exec.Command(name, u.configPath).Start(); err != nil {
		u.log.Error().Err(err).Str("path", u.configPath).Msg("Failed to open config")
	}
}

func (u *UI) showAbout() {
	u.log.Info().Str("version", u.version).Str("commit", u.commit).Msg("Read Aloud")
}

func (u *UI) onExit() {
	if err := u.app.Shutdown(context.Background()); err != nil {
		u.log.Error().Err(err).Msg("Shutdown error")
	}
}

// updateStatus sets the tray title with a speaker emoji and status indicator
func (u *UI) updateStatus(status string) {
	systray.SetTitle(fmt.Sprintf("🔈 %s", emojiForStatus(status)))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "speaking":
		return "🔵" // Blue - reading aloud
	case "paused":
		return "⏸️" // Hotkeys paused
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚪️" // White - error
	default:
		return "🟢" // Green - default to ready
	}
}

var actionLabels = map[string]string{
	config.ActionReadClipboard:   "Read",
	config.ActionStopSpeaking:    "Stop",
	config.ActionExportClipboard: "Export",
}

// hotkeyHint renders bindings as "Read: ctrl+shift+r  Stop: ctrl+shift+s".
func hotkeyHint(bindings map[string]string) string {
	if len(bindings) == 0 {
		return "No hotkeys bound"
	}

	actions := make([]string, 0, len(bindings))
	for action := range bindings {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	parts := make([]string, 0, len(actions))
	for _, action := range actions {
		label, ok := actionLabels[action]
		if !ok {
			label = action
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, bindings[action]))
	}
	return strings.Join(parts, "  ")
}
