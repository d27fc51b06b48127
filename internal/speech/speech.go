package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/petems/readaloud-tray/internal/config"
	"github.com/rs/zerolog"
)

// ErrNoText is returned when there is nothing to read.
var ErrNoText = errors.New("no text to speak")

// Speaker reads text aloud
type Speaker interface {
	// Speak blocks until the text has been read or interrupted. A new call
	// interrupts the utterance in progress.
	Speak(ctx context.Context, text string) error
	Stop() error
	Speaking() bool
	Configure(cfg config.SpeechConfig)
	// Export renders text to an audio file in dir and returns its path.
	Export(ctx context.Context, text, dir string) (string, error)
}

type utterance struct {
	cmd     *exec.Cmd
	stopped bool
}

type commandSpeaker struct {
	log    zerolog.Logger
	engine func(config.SpeechConfig) (string, []string)
	// exporter returns the engine invocation writing audio to path, and
	// ext is the extension of that file.
	exporter func(cfg config.SpeechConfig, path string) (string, []string)
	ext      string
	kill     func(*os.Process) error

	mu      sync.Mutex
	cfg     config.SpeechConfig
	current *utterance
}

// New creates a Speaker backed by the system engine: say on macOS, espeak
// elsewhere.
func New(cfg config.SpeechConfig, log zerolog.Logger) Speaker {
	return &commandSpeaker{
		log: log,
		engine: func(cfg config.SpeechConfig) (string, []string) {
			return command(runtime.GOOS, cfg)
		},
		exporter: func(cfg config.SpeechConfig, path string) (string, []string) {
			return exportCommand(runtime.GOOS, cfg, path)
		},
		ext:  exportExt(runtime.GOOS),
		kill: (*os.Process).Kill,
		cfg:  cfg,
	}
}

func (s *commandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoText
	}

	s.mu.Lock()
	if err := s.interruptLocked(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to interrupt previous speech")
	}
	name, args := s.engine(s.cfg)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start %s: %w", name, err)
	}
	u := &utterance{cmd: cmd}
	s.current = u
	s.mu.Unlock()

	s.log.Info().Str("engine", name).Int("chars", len(text)).Msg("Speaking")
	err := cmd.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == u {
		s.current = nil
	}
	if u.stopped {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *commandSpeaker) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interruptLocked()
}

func (s *commandSpeaker) interruptLocked() error {
	if s.current == nil {
		return nil
	}
	s.current.stopped = true
	proc := s.current.cmd.Process
	s.current = nil
	if proc == nil {
		return nil
	}
	s.log.Debug().Int("pid", proc.Pid).Msg("Interrupting speech")
	if err := s.kill(proc); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop speech: %w", err)
	}
	return nil
}

func (s *commandSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *commandSpeaker) Configure(cfg config.SpeechConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Export writes text as audio to a timestamped file in dir. It does not
// interrupt speech in progress.
func (s *commandSpeaker) Export(ctx context.Context, text, dir string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, exportName(time.Now(), s.ext))
	s.mu.Lock()
	name, args := s.exporter(s.cfg, path)
	s.mu.Unlock()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}

	s.log.Info().Str("path", path).Int("chars", len(text)).Msg("Exported speech")
	return path, nil
}

func exportName(t time.Time, ext string) string {
	return "readaloud-" + t.Format("20060102-150405") + ext
}

func exportExt(goos string) string {
	if goos == "darwin" {
		return ".aiff"
	}
	return ".wav"
}

// exportCommand is command with the output redirected to path.
func exportCommand(goos string, cfg config.SpeechConfig, path string) (string, []string) {
	name, args := command(goos, cfg)
	if goos == "darwin" {
		return name, append(args, "-o", path)
	}
	return name, append(args, "-w", path)
}

// command returns the engine invocation for goos. Text is read from stdin.
func command(goos string, cfg config.SpeechConfig) (string, []string) {
	if goos == "darwin" {
		var args []string
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		if cfg.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(cfg.Rate))
		}
		return "say", args
	}

	args := []string{"--stdin"}
	if cfg.Voice != "" {
		args = append(args, "-v", cfg.Voice)
	}
	if cfg.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(cfg.Rate))
	}
	return "espeak", args
}
