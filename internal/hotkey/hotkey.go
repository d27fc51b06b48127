// Package hotkey turns human-readable shortcuts such as "ctrl+shift+r" into
// system-wide key bindings.
//
// A Manager owns the registry of shortcuts and a single Listener built from
// it. The Listener is the platform facility that captures key presses; the
// system-wide one lives in the xlistener subpackage so that parsing and the
// registry build without cgo or a display.
package hotkey

import (
	"errors"
	"fmt"
)

// ErrNoListener is returned by Start when the Manager was built without a
// ListenerFactory.
var ErrNoListener = errors.New("no hotkey listener configured")

// ErrInvalidSpec is matched by every error returned from Parse.
var ErrInvalidSpec = errors.New("invalid hotkey specification")

// InvalidSpecError describes why a hotkey specification was rejected.
type InvalidSpecError struct {
	Spec   string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid hotkey %q: %s", e.Spec, e.Reason)
}

// Is reports whether target is ErrInvalidSpec.
func (e *InvalidSpecError) Is(target error) bool {
	return target == ErrInvalidSpec
}

// Listener captures key combinations system-wide and invokes the matching
// callback on key-down.
type Listener interface {
	Start() error
	Stop()
}

// ListenerFactory builds an unstarted Listener from normalized combinations
// (as returned by Parse) to callbacks.
type ListenerFactory func(bindings map[string]func()) Listener

type nopListener struct{}

func (nopListener) Start() error { return ErrNoListener }
func (nopListener) Stop()        {}

func nopFactory(map[string]func()) Listener { return nopListener{} }
