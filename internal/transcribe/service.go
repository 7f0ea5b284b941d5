// Package transcribe wraps the external WhisperX-style speech-to-text tool
// used for the transcription stage.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dunamismax/subflow/internal/domain"
	"github.com/dunamismax/subflow/internal/translit"
)

const (
	DefaultBinary = "whisperx"
	DefaultModel  = "medium"
)

type Config struct {
	Binary string
	Model  string
}

type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, onLine func(string), name string, args ...string) error
}

func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing). The runner
// receives each output line the real tool would print.
func (s *Service) WithCommandRunner(runner func(ctx context.Context, onLine func(string), name string, args ...string) error) {
	s.commandRunner = runner
}

// Transcribe runs the external tool against audioPath and returns the parsed
// segments ordered by start time. onProgress receives the tool's 0-100
// progress signal zero or more times before return. In romanized mode the
// segment text is transliterated to Latin script.
func (s *Service) Transcribe(ctx context.Context, audioPath, language, mode string, onProgress func(float64)) ([]domain.Segment, error) {
	if audioPath == "" {
		return nil, fmt.Errorf("transcribe: audio path required")
	}
	outputDir := filepath.Dir(audioPath)

	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--print_progress", "True",
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	if mode == domain.ModeTranslate {
		args = append(args, "--task", "translate")
	}

	onLine := func(line string) {
		if p, ok := ParseProgress(line); ok && onProgress != nil {
			onProgress(p)
		}
	}
	if err := s.run(ctx, onLine, s.cfg.Binary, args...); err != nil {
		return nil, fmt.Errorf("transcription tool: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segments, err := loadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, err
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	for i := range segments {
		text := strings.TrimSpace(segments[i].Text)
		if mode == domain.ModeRomanized && translit.Supported(language) {
			text = translit.Romanize(text, language)
		}
		segments[i].Text = text
	}
	return segments, nil
}

func (s *Service) run(ctx context.Context, onLine func(string), name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, onLine, name, args...)
	}

	out := &lineWriter{onLine: onLine}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	out.flush()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(out.tailText()))
	}
	return nil
}

var progressPattern = regexp.MustCompile(`(?i)progress\s*[:=]?\s*([0-9]{1,3}(?:\.[0-9]+)?)\s*%`)

// ParseProgress extracts a 0-100 progress value from one tool output line.
func ParseProgress(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	p, err := strconv.ParseFloat(m[1], 64)
	if err != nil || p < 0 || p > 100 {
		return 0, false
	}
	return p, true
}

type payload struct {
	Segments []domain.Segment `json:"segments"`
}

func loadSegments(jsonPath string) ([]domain.Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read transcription output: %w", err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse transcription output: %w", err)
	}
	return p.Segments, nil
}

// lineWriter feeds complete output lines to onLine and keeps a bounded tail
// of the raw output for error diagnostics.
type lineWriter struct {
	onLine func(string)
	buf    bytes.Buffer
	tail   bytes.Buffer
}

const maxTailBytes = 4096

func (w *lineWriter) Write(p []byte) (int, error) {
	w.tail.Write(p)
	if w.tail.Len() > maxTailBytes {
		w.tail.Next(w.tail.Len() - maxTailBytes)
	}

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// partial line, put it back
			w.buf.WriteString(line)
			break
		}
		if w.onLine != nil {
			w.onLine(strings.TrimRight(line, "\r\n"))
		}
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if rest := strings.TrimRight(w.buf.String(), "\r\n"); rest != "" && w.onLine != nil {
		w.onLine(rest)
	}
	w.buf.Reset()
}

func (w *lineWriter) tailText() string {
	return w.tail.String()
}
