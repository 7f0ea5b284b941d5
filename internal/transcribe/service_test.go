package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dunamismax/subflow/internal/domain"
)

func TestParseProgress(t *testing.T) {
	cases := []struct {
		line string
		want float64
		ok   bool
	}{
		{"Progress: 42%...", 42, true},
		{"whisper_print_progress_callback: progress = 10%", 10, true},
		{"progress: 99.5%", 99.5, true},
		{"Progress: 100%", 100, true},
		{"Detected language: hi", 0, false},
		{"progress: 250%", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseProgress(tc.line)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseProgress(%q): expected (%v,%v), got (%v,%v)", tc.line, tc.want, tc.ok, got, ok)
		}
	}
}

func writeToolOutput(t *testing.T, audioPath, segmentsJSON string) {
	t.Helper()
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(filepath.Dir(audioPath), base+".json")
	if err := os.WriteFile(jsonPath, []byte(segmentsJSON), 0o644); err != nil {
		t.Fatalf("write tool output: %v", err)
	}
}

func TestTranscribeParsesSegmentsAndProgress(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "job-1.wav")

	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, onLine func(string), name string, args ...string) error {
		if name != DefaultBinary {
			t.Fatalf("expected binary %q, got %q", DefaultBinary, name)
		}
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--output_format json") {
			t.Fatalf("expected json output format in args: %v", args)
		}
		if !strings.Contains(joined, "--language en") {
			t.Fatalf("expected language flag in args: %v", args)
		}
		if strings.Contains(joined, "--task translate") {
			t.Fatalf("did not expect translate task for native mode: %v", args)
		}

		onLine("Progress: 25%...")
		onLine("Progress: 80%...")
		writeToolOutput(t, audioPath, `{"segments":[
			{"start":3.0,"end":5.0,"text":" later "},
			{"start":0.0,"end":2.5,"text":" hello "}
		]}`)
		return nil
	})

	var reported []float64
	segments, err := svc.Transcribe(context.Background(), audioPath, "en", domain.ModeNative, func(p float64) {
		reported = append(reported, p)
	})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	if len(reported) != 2 || reported[0] != 25 || reported[1] != 80 {
		t.Fatalf("expected progress [25 80], got %v", reported)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "hello" || segments[0].Start != 0 {
		t.Fatalf("expected segments sorted by start with trimmed text, got %+v", segments)
	}
}

func TestTranscribeTranslateModeSetsTask(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "job-2.wav")

	svc := NewService(Config{Model: "small"})
	svc.WithCommandRunner(func(_ context.Context, _ func(string), _ string, args ...string) error {
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--task translate") {
			t.Fatalf("expected translate task in args: %v", args)
		}
		if !strings.Contains(joined, "--model small") {
			t.Fatalf("expected configured model in args: %v", args)
		}
		writeToolOutput(t, audioPath, `{"segments":[]}`)
		return nil
	})

	if _, err := svc.Transcribe(context.Background(), audioPath, "hi", domain.ModeTranslate, nil); err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
}

func TestTranscribeRomanizedModeTransliterates(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "job-3.wav")

	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ func(string), _ string, _ ...string) error {
		writeToolOutput(t, audioPath, `{"segments":[{"start":0,"end":1,"text":"नमस्ते"}]}`)
		return nil
	})

	segments, err := svc.Transcribe(context.Background(), audioPath, "hi", domain.ModeRomanized, nil)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if segments[0].Text != "namaste" {
		t.Fatalf("expected romanized text, got %q", segments[0].Text)
	}
}

func TestTranscribeToolFailure(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ func(string), _ string, _ ...string) error {
		return os.ErrPermission
	})

	if _, err := svc.Transcribe(context.Background(), "in.wav", "en", domain.ModeNative, nil); err == nil {
		t.Fatal("expected error when the tool fails")
	}
}

func TestLineWriterSplitsAcrossWrites(t *testing.T) {
	var lines []string
	w := &lineWriter{onLine: func(s string) { lines = append(lines, s) }}

	w.Write([]byte("Progress: 1"))
	w.Write([]byte("0%\nDetected lang"))
	w.Write([]byte("uage: en\n"))
	w.flush()

	if len(lines) != 2 || lines[0] != "Progress: 10%" || lines[1] != "Detected language: en" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}
