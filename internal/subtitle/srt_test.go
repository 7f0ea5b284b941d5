package subtitle

import (
	"strings"
	"testing"

	"github.com/dunamismax/subflow/internal/domain"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{59.999, "00:00:59,999"},
		{61.25, "00:01:01,250"},
		{3661.042, "01:01:01,042"},
		{7322.058, "02:02:02,058"},
		{1.9999996, "00:00:02,000"},
		{-3, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Fatalf("FormatTimestamp(%v): expected %q, got %q", tc.seconds, tc.want, got)
		}
	}
}

func TestGenerateSRT(t *testing.T) {
	segments := []domain.Segment{
		{Start: 0, End: 2.5, Text: "hello world"},
		{Start: 2.5, End: 5, Text: "second line"},
	}

	got := GenerateSRT(segments)
	want := "1\n00:00:00,000 --> 00:00:02,500\nhello world\n" +
		"\n" +
		"2\n00:00:02,500 --> 00:00:05,000\nsecond line\n"
	if got != want {
		t.Fatalf("unexpected SRT output:\n%q\nwant:\n%q", got, want)
	}
}

func TestGenerateSRTEmpty(t *testing.T) {
	if got := GenerateSRT(nil); got != "" {
		t.Fatalf("expected empty output for no segments, got %q", got)
	}
}

func TestSplitByWords(t *testing.T) {
	segments := []domain.Segment{
		{Start: 10, End: 16, Text: "one two three four five six"},
	}

	out := SplitByWords(segments, 2)
	if len(out) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(out))
	}
	if out[0].Text != "one two" || out[1].Text != "three four" || out[2].Text != "five six" {
		t.Fatalf("unexpected chunk texts: %+v", out)
	}
	if out[0].Start != 10 {
		t.Fatalf("expected first chunk to keep segment start, got %v", out[0].Start)
	}
	if out[2].End != 16 {
		t.Fatalf("expected last chunk to keep segment end, got %v", out[2].End)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Start < out[i-1].End-1e-9 {
			t.Fatalf("chunks overlap: %+v", out)
		}
	}
}

func TestSplitByWordsDisabled(t *testing.T) {
	segments := []domain.Segment{{Start: 0, End: 1, Text: "a b c"}}
	out := SplitByWords(segments, 0)
	if len(out) != 1 || out[0].Text != "a b c" {
		t.Fatalf("expected segments unchanged, got %+v", out)
	}
}

func TestSRTFormatterAppliesWordsPerLine(t *testing.T) {
	f := SRTFormatter{}
	got := f.Format([]domain.Segment{{Start: 0, End: 4, Text: "a b c d"}}, 2)
	if !strings.Contains(got, "a b\n") || !strings.Contains(got, "c d\n") {
		t.Fatalf("expected words-per-line split in output:\n%s", got)
	}
}
