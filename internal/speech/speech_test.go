package speech

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petems/readaloud-tray/internal/config"
	"github.com/rs/zerolog"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		cfg      config.SpeechConfig
		wantName string
		wantArgs []string
	}{
		{
			name:     "macOS defaults",
			goos:     "darwin",
			wantName: "say",
			wantArgs: nil,
		},
		{
			name:     "macOS voice and rate",
			goos:     "darwin",
			cfg:      config.SpeechConfig{Voice: "Samantha", Rate: 180},
			wantName: "say",
			wantArgs: []string{"-v", "Samantha", "-r", "180"},
		},
		{
			name:     "linux defaults",
			goos:     "linux",
			wantName: "espeak",
			wantArgs: []string{"--stdin"},
		},
		{
			name:     "linux voice and rate",
			goos:     "linux",
			cfg:      config.SpeechConfig{Voice: "en-us", Rate: 150},
			wantName: "espeak",
			wantArgs: []string{"--stdin", "-v", "en-us", "-s", "150"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args := command(tt.goos, tt.cfg)
			if name != tt.wantName {
				t.Errorf("expected %s, got %s", tt.wantName, name)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("expected args %v, got %v", tt.wantArgs, args)
			}
		})
	}
}

func testSpeaker(name string, args ...string) *commandSpeaker {
	return &commandSpeaker{
		log: zerolog.Nop(),
		engine: func(config.SpeechConfig) (string, []string) {
			return name, args
		},
		// Writes stdin to the requested path.
		exporter: func(_ config.SpeechConfig, path string) (string, []string) {
			return "sh", []string{"-c", `cat > "$0"`, path}
		},
		ext:  ".wav",
		kill: (*os.Process).Kill,
	}
}

// syncBuffer lets the test read log output written from Speak goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitSpeaking(t *testing.T, s *commandSpeaker) {
	t.Helper()
	for i := 0; i < 100; i++ { // Poll for 1 second
		if s.Speaking() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected speaker to be speaking")
}

func TestSpeakEmptyText(t *testing.T) {
	s := testSpeaker("cat")
	if err := s.Speak(context.Background(), "  \n"); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestSpeakRunsEngine(t *testing.T) {
	s := testSpeaker("cat")
	if err := s.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if s.Speaking() {
		t.Error("expected speaker idle after the engine exits")
	}
}

func TestSpeakMissingEngine(t *testing.T) {
	s := testSpeaker("readaloud-tray-no-such-engine")
	if err := s.Speak(context.Background(), "hello"); err == nil {
		t.Fatal("expected an error for a missing engine")
	}
}

func TestStopWhenIdle(t *testing.T) {
	s := testSpeaker("cat")
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop on idle speaker: %v", err)
	}
}

func TestStopInterruptsSpeech(t *testing.T) {
	s := testSpeaker("sleep", "10")

	done := make(chan error, 1)
	go func() {
		done <- s.Speak(context.Background(), "a long article")
	}()

	var speaking bool
	for i := 0; i < 100; i++ { // Poll for 1 second
		if s.Speaking() {
			speaking = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !speaking {
		t.Fatal("expected speaker to be speaking")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("interrupted Speak should return nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Speak did not return after Stop")
	}
	if s.Speaking() {
		t.Error("expected speaker idle after Stop")
	}
}

func TestConfigureChangesEngineArgs(t *testing.T) {
	s := New(config.SpeechConfig{}, zerolog.Nop()).(*commandSpeaker)
	s.Configure(config.SpeechConfig{Voice: "Alex", Rate: 220})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Voice != "Alex" || s.cfg.Rate != 220 {
		t.Errorf("unexpected config %+v", s.cfg)
	}
}

func TestSpeakLogsFailedInterrupt(t *testing.T) {
	var logs syncBuffer
	s := testSpeaker("sleep", "10")
	s.log = zerolog.New(&logs)

	var victim *os.Process
	s.kill = func(p *os.Process) error {
		victim = p
		return errors.New("operation not permitted")
	}

	first := make(chan error, 1)
	go func() {
		first <- s.Speak(context.Background(), "first article")
	}()
	waitSpeaking(t, s)

	// The replacement utterance still runs after the failed kill.
	s.engine = func(config.SpeechConfig) (string, []string) { return "cat", nil }
	if err := s.Speak(context.Background(), "second article"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	if !strings.Contains(logs.String(), "Failed to interrupt previous speech") {
		t.Errorf("expected interrupt failure to be logged, got %q", logs.String())
	}

	if victim == nil {
		t.Fatal("expected the first utterance to be interrupted")
	}
	_ = victim.Kill()
	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("first Speak did not return")
	}
}

func TestExportCommand(t *testing.T) {
	name, args := exportCommand("darwin", config.SpeechConfig{Voice: "Samantha"}, "/tmp/a.aiff")
	if name != "say" || !reflect.DeepEqual(args, []string{"-v", "Samantha", "-o", "/tmp/a.aiff"}) {
		t.Errorf("unexpected darwin export %s %v", name, args)
	}

	name, args = exportCommand("linux", config.SpeechConfig{Rate: 150}, "/tmp/a.wav")
	if name != "espeak" || !reflect.DeepEqual(args, []string{"--stdin", "-s", "150", "-w", "/tmp/a.wav"}) {
		t.Errorf("unexpected linux export %s %v", name, args)
	}

	if exportExt("darwin") != ".aiff" || exportExt("linux") != ".wav" {
		t.Error("unexpected export extensions")
	}
}

func TestExportWritesFile(t *testing.T) {
	s := testSpeaker("cat")
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := s.Export(context.Background(), "  save me  ", dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".wav" {
		t.Errorf("unexpected export path %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "readaloud-") {
		t.Errorf("unexpected export name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "save me" {
		t.Errorf("expected trimmed text passed to the engine, got %q", data)
	}
}

func TestExportEmptyText(t *testing.T) {
	s := testSpeaker("cat")
	if _, err := s.Export(context.Background(), " ", t.TempDir()); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestExportEngineFailure(t *testing.T) {
	s := testSpeaker("cat")
	s.exporter = func(config.SpeechConfig, string) (string, []string) {
		return "sh", []string{"-c", "echo no voice >&2; exit 3"}
	}
	_, err := s.Export(context.Background(), "hello", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no voice") {
		t.Fatalf("expected engine stderr in the error, got %v", err)
	}
}
