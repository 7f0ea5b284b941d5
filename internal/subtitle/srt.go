package subtitle

import (
	"fmt"
	"math"
	"strings"

	"github.com/dunamismax/subflow/internal/domain"
)

// FormatTimestamp renders seconds as an SRT timestamp, HH:MM:SS,mmm. The
// fraction is rounded at microsecond precision before truncating to
// milliseconds, so float representation error cannot shave a millisecond off
// an exact input like 3661.042.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	micros := int(math.Round((seconds - float64(total)) * 1e6))
	if micros >= 1e6 {
		total++
		micros -= 1e6
	}
	millis := micros / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// GenerateSRT renders segments as SRT: a 1-based index, "start --> end"
// timestamps, then the text, one blank line between blocks.
func GenerateSRT(segments []domain.Segment) string {
	blocks := make([]string, 0, len(segments))
	for i, seg := range segments {
		blocks = append(blocks, fmt.Sprintf(
			"%d\n%s --> %s\n%s\n",
			i+1,
			FormatTimestamp(seg.Start),
			FormatTimestamp(seg.End),
			seg.Text,
		))
	}
	return strings.Join(blocks, "\n")
}

// SplitByWords re-chunks each segment into lines of at most wordsPerLine
// words, distributing the segment's time span proportionally by word count.
// A wordsPerLine of zero or less returns the segments unchanged.
func SplitByWords(segments []domain.Segment, wordsPerLine int) []domain.Segment {
	if wordsPerLine <= 0 {
		return segments
	}

	out := make([]domain.Segment, 0, len(segments))
	for _, seg := range segments {
		words := strings.Fields(seg.Text)
		if len(words) <= wordsPerLine {
			out = append(out, seg)
			continue
		}

		span := seg.End - seg.Start
		if span < 0 {
			span = 0
		}
		perWord := span / float64(len(words))

		for offset := 0; offset < len(words); offset += wordsPerLine {
			end := offset + wordsPerLine
			if end > len(words) {
				end = len(words)
			}
			chunk := domain.Segment{
				Start: seg.Start + perWord*float64(offset),
				End:   seg.Start + perWord*float64(end),
				Text:  strings.Join(words[offset:end], " "),
			}
			if end == len(words) {
				chunk.End = seg.End
			}
			out = append(out, chunk)
		}
	}
	return out
}

// SRTFormatter is the subtitle-formatting stage handed to the orchestrator.
type SRTFormatter struct{}

func (SRTFormatter) Format(segments []domain.Segment, wordsPerLine int) string {
	return GenerateSRT(SplitByWords(segments, wordsPerLine))
}
