package hotkey

import (
	"fmt"
	"strings"
)

// modifiers maps the accepted modifier tokens to their normalized form.
// cmd and super are the same key.
var modifiers = map[string]string{
	"ctrl":  "<ctrl>",
	"shift": "<shift>",
	"alt":   "<alt>",
	"cmd":   "<cmd>",
	"super": "<cmd>",
}

// Parse validates a specification like "ctrl+shift+p" and returns its
// normalized form "<ctrl>+<shift>+p". Matching is case-insensitive.
func Parse(spec string) (string, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return "", &InvalidSpecError{Spec: spec, Reason: "hotkey cannot be empty"}
	}

	parts := strings.Split(strings.ToLower(trimmed), "+")
	if len(parts) < 2 {
		return "", &InvalidSpecError{Spec: spec, Reason: "hotkey must have at least one modifier and one key"}
	}

	key := parts[len(parts)-1]
	if key == "" {
		return "", &InvalidSpecError{Spec: spec, Reason: "hotkey is missing a key"}
	}
	if _, ok := modifiers[key]; ok {
		return "", &InvalidSpecError{Spec: spec, Reason: "key must not be a bare modifier"}
	}

	normalized := make([]string, 0, len(parts))
	for _, mod := range parts[:len(parts)-1] {
		n, ok := modifiers[mod]
		if !ok {
			return "", &InvalidSpecError{Spec: spec, Reason: fmt.Sprintf("invalid modifier %q", mod)}
		}
		normalized = append(normalized, n)
	}
	normalized = append(normalized, key)

	return strings.Join(normalized, "+"), nil
}
