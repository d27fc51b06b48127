//go:build !darwin

package permissions

import "errors"

// ErrAccessibility is returned when global hotkeys cannot be captured.
var ErrAccessibility = errors.New("accessibility permission not granted")

// EnsurePermissions is a no-op on non-macOS platforms.
func EnsurePermissions() error {
	return nil
}
