// Package clipboard reads the text the user wants read aloud.
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	atclip "github.com/atotto/clipboard"
)

var (
	// ErrEmpty is returned when the clipboard holds no text.
	ErrEmpty = errors.New("clipboard is empty")
	// ErrUnsupported is returned when no clipboard utility is available.
	ErrUnsupported = errors.New("clipboard is not supported on this system")
)

// Reader returns the current clipboard text
type Reader interface {
	ReadText() (string, error)
}

type systemReader struct {
	readAll func() (string, error)
}

// New returns a Reader for the system clipboard.
func New() Reader {
	return &systemReader{readAll: systemReadAll}
}

func systemReadAll() (string, error) {
	if atclip.Unsupported {
		return "", ErrUnsupported
	}
	return atclip.ReadAll()
}

// ReadText returns the clipboard contents with surrounding whitespace trimmed.
func (r *systemReader) ReadText() (string, error) {
	text, err := r.readAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}
