package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractAudioBuildsFFmpegArgs(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "input.mp4")
	if err := os.WriteFile(source, []byte("fake video"), 0o644); err != nil {
		t.Fatalf("seed source file: %v", err)
	}
	dest := filepath.Join(dir, "out", "input.wav")

	var gotName string
	var gotArgs []string
	e := NewExtractor("")
	e.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	if err := e.ExtractAudio(context.Background(), source, dest); err != nil {
		t.Fatalf("ExtractAudio returned error: %v", err)
	}
	if gotName != DefaultFFmpegBinary {
		t.Fatalf("expected binary %q, got %q", DefaultFFmpegBinary, gotName)
	}
	if gotArgs[len(gotArgs)-1] != dest {
		t.Fatalf("expected dest as final arg, got %v", gotArgs)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-vn", "-ac 1", "-ar 16000", "pcm_s16le"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected args to contain %q, got %v", want, gotArgs)
		}
	}

	if _, err := os.Stat(filepath.Dir(dest)); err != nil {
		t.Fatalf("expected output dir to be created: %v", err)
	}
}

func TestExtractAudioMissingSource(t *testing.T) {
	e := NewExtractor("")
	e.WithCommandRunner(func(_ context.Context, _ string, _ ...string) error {
		t.Fatal("runner must not be invoked for a missing source")
		return nil
	})

	err := e.ExtractAudio(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), "out.wav")
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}
