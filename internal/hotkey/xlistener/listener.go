// Package xlistener grabs hotkeys through the operating system with
// golang.design/x/hotkey (Carbon on macOS, X11 on Linux, Win32 on Windows).
//
// On Linux, importing this package needs a reachable X display.
package xlistener

import (
	"fmt"
	"strings"
	"sync"

	"github.com/petems/readaloud-tray/internal/hotkey"
	"github.com/rs/zerolog"
	xhotkey "golang.design/x/hotkey"
)

type globalListener struct {
	log      zerolog.Logger
	bindings map[string]func()

	mu         sync.Mutex
	registered []*xhotkey.Hotkey
	done       chan struct{}
}

// Factory returns a hotkey.ListenerFactory building system-wide listeners.
func Factory(log zerolog.Logger) hotkey.ListenerFactory {
	return func(bindings map[string]func()) hotkey.Listener {
		return New(bindings, log)
	}
}

// New creates an unstarted listener for normalized combinations such as
// "<ctrl>+<shift>+p".
func New(bindings map[string]func(), log zerolog.Logger) hotkey.Listener {
	copied := make(map[string]func(), len(bindings))
	for combo, cb := range bindings {
		copied[combo] = cb
	}
	return &globalListener{
		log:      log,
		bindings: copied,
	}
}

// Start registers every combination. If any of them fails, the ones already
// grabbed are released and the error is returned.
func (l *globalListener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return nil
	}

	done := make(chan struct{})
	registered := make([]*xhotkey.Hotkey, 0, len(l.bindings))
	for combo, cb := range l.bindings {
		mods, key, err := resolveCombo(combo)
		if err == nil {
			hk := xhotkey.New(mods, key)
			if err = hk.Register(); err == nil {
				registered = append(registered, hk)
				go l.dispatch(combo, hk, cb, done)
				continue
			}
			err = fmt.Errorf("register %s: %w", combo, err)
		}

		close(done)
		l.release(registered)
		return err
	}

	l.registered = registered
	l.done = done
	l.log.Info().Int("hotkeys", len(registered)).Msg("Hotkey listener started")
	return nil
}

// Stop releases all grabbed keys. Callbacks already running are not waited
// for, so a callback may call Stop itself.
func (l *globalListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done == nil {
		return
	}
	close(l.done)
	l.release(l.registered)
	l.registered = nil
	l.done = nil
	l.log.Info().Msg("Hotkey listener stopped")
}

func (l *globalListener) release(hks []*xhotkey.Hotkey) {
	for _, hk := range hks {
		if err := hk.Unregister(); err != nil {
			l.log.Warn().Err(err).Msg("Failed to unregister hotkey")
		}
	}
}

func (l *globalListener) dispatch(combo string, hk *xhotkey.Hotkey, cb func(), done <-chan struct{}) {
	keydown, keyup := hk.Keydown(), hk.Keyup()
	for {
		select {
		case <-done:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			l.log.Debug().Str("combo", combo).Msg("Hotkey pressed")
			cb()
		case _, ok := <-keyup:
			if !ok {
				return
			}
		}
	}
}

// resolveCombo maps a normalized combination onto platform modifiers and a
// key code.
func resolveCombo(combo string) ([]xhotkey.Modifier, xhotkey.Key, error) {
	parts := strings.Split(combo, "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("combination %q has no modifier", combo)
	}

	mods := make([]xhotkey.Modifier, 0, len(parts)-1)
	for _, part := range parts[:len(parts)-1] {
		m, ok := modMap[part]
		if !ok {
			return nil, 0, fmt.Errorf("unsupported modifier %q in %q", part, combo)
		}
		mods = append(mods, m)
	}

	name := parts[len(parts)-1]
	key, ok := platformKeys[name]
	if !ok {
		key, ok = keyMap[name]
	}
	if !ok {
		return nil, 0, fmt.Errorf("unsupported key %q in %q", name, combo)
	}

	return mods, key, nil
}
