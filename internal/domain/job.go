package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"

	ModeNative    = "native"
	ModeRomanized = "romanized"
	ModeTranslate = "translate"
)

// IsTerminal reports whether a job in the given status can transition further.
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

type TranscribeRequest struct {
	FilePath         string `json:"file_path"`
	Language         string `json:"language"`
	Mode             string `json:"mode"`
	WordsPerLine     int    `json:"words_per_line,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
	WebhookURL       string `json:"webhook_url,omitempty"`
}

type Job struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	Message          string    `json:"message"`
	Progress         int       `json:"progress"`
	Language         string    `json:"language,omitempty"`
	Mode             string    `json:"mode,omitempty"`
	WordsPerLine     int       `json:"words_per_line,omitempty"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	ResultPath       string    `json:"result_path,omitempty"`
	ResultName       string    `json:"result_name,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Segment is one transcribed span of audio, ordered by Start.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (r TranscribeRequest) Validate() error {
	if strings.TrimSpace(r.FilePath) == "" {
		return errors.New("file_path is required")
	}
	if strings.TrimSpace(r.Language) == "" {
		return errors.New("language is required")
	}
	mode := strings.ToLower(strings.TrimSpace(r.Mode))
	if mode == "" {
		return errors.New("mode is required")
	}
	if mode != ModeNative && mode != ModeRomanized && mode != ModeTranslate {
		return fmt.Errorf("unsupported mode: %s", r.Mode)
	}
	if r.WordsPerLine < 0 {
		return fmt.Errorf("words_per_line must not be negative, got %d", r.WordsPerLine)
	}
	return nil
}
