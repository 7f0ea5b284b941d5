package domain

import "testing"

func TestTranscribeRequestValidate(t *testing.T) {
	valid := TranscribeRequest{
		FilePath: "uploads/abc.mp4",
		Language: "hi",
		Mode:     ModeNative,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	empty := TranscribeRequest{}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected validation error for empty request")
	}

	missingLanguage := TranscribeRequest{
		FilePath: "uploads/abc.mp4",
		Mode:     ModeNative,
	}
	if err := missingLanguage.Validate(); err == nil {
		t.Fatal("expected validation error for missing language")
	}

	badMode := TranscribeRequest{
		FilePath: "uploads/abc.mp4",
		Language: "en",
		Mode:     "verbatim",
	}
	if err := badMode.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported mode")
	}

	negativeWords := TranscribeRequest{
		FilePath:     "uploads/abc.mp4",
		Language:     "en",
		Mode:         ModeTranslate,
		WordsPerLine: -2,
	}
	if err := negativeWords.Validate(); err == nil {
		t.Fatal("expected validation error for negative words_per_line")
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(JobStatusPending) || IsTerminal(JobStatusProcessing) {
		t.Fatal("pending and processing must not be terminal")
	}
	if !IsTerminal(JobStatusCompleted) || !IsTerminal(JobStatusFailed) {
		t.Fatal("completed and failed must be terminal")
	}
}
