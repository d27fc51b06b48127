//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework ApplicationServices -framework Cocoa
#import <ApplicationServices/ApplicationServices.h>
#import <Cocoa/Cocoa.h>

int checkAccessibilityPermission(int prompt) {
    NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: prompt ? @YES : @NO};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

import "errors"

// ErrAccessibility is returned when global hotkeys cannot be captured.
var ErrAccessibility = errors.New("accessibility permission not granted")

// CheckAccessibility reports whether the app may capture global hotkeys
func CheckAccessibility() bool {
	return C.checkAccessibilityPermission(0) == 1
}

// PromptAccessibility shows the system dialog asking for accessibility access
func PromptAccessibility() bool {
	return C.checkAccessibilityPermission(1) == 1
}

// EnsurePermissions prompts for accessibility access if it is missing.
// Without it hotkeys are registered but never fire.
func EnsurePermissions() error {
	if CheckAccessibility() {
		return nil
	}
	if PromptAccessibility() {
		return nil
	}
	return ErrAccessibility
}
