package pipeline

// Fixed stage weights for the overall 0-100 progress bar. Extraction and
// formatting are near-instant and contribute flat jumps; the transcription
// stage's own 0-100 signal is mapped onto the [15,90] window between them.
const (
	progressExtracting  = 5
	progressTranscribe  = 15
	progressFormatting  = 95
	progressDone        = 100
	transcriptionWeight = 0.75
)

// mapTranscriptionProgress maps the transcription stage's 0-100 signal onto
// the overall bar, truncating to an integer. Monotonic in p.
func mapTranscriptionProgress(p float64) int {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return progressTranscribe + int(p*transcriptionWeight)
}

// clampProgress keeps a job's progress non-decreasing even when a late
// callback reports a lower value than an earlier one.
func clampProgress(current, computed int) int {
	if computed < current {
		return current
	}
	return computed
}
