// Package media wraps the external ffmpeg tool used for the audio
// extraction stage.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const DefaultFFmpegBinary = "ffmpeg"

type Extractor struct {
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

func NewExtractor(ffmpegBinary string) *Extractor {
	if ffmpegBinary == "" {
		ffmpegBinary = DefaultFFmpegBinary
	}
	return &Extractor{ffmpegBinary: ffmpegBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// ExtractAudio extracts the audio stream from source into dest as a mono
// 16kHz PCM WAV, the input format the transcription stage expects.
func (e *Extractor) ExtractAudio(ctx context.Context, source, dest string) error {
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("media file not found: %s", source)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("extract audio: ensure output dir: %w", err)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if e.commandRunner != nil {
		return e.commandRunner(ctx, e.ffmpegBinary, args...)
	}

	cmd := exec.CommandContext(ctx, e.ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
