package pipeline

import "testing"

func TestMapTranscriptionProgress(t *testing.T) {
	cases := []struct {
		p    float64
		want int
	}{
		{0, 15},
		{1, 15},
		{50, 52},
		{99, 89},
		{100, 90},
		{-5, 15},
		{250, 90},
	}
	for _, tc := range cases {
		if got := mapTranscriptionProgress(tc.p); got != tc.want {
			t.Fatalf("mapTranscriptionProgress(%v): expected %d, got %d", tc.p, tc.want, got)
		}
	}
}

func TestMapTranscriptionProgressMonotonic(t *testing.T) {
	prev := 0
	for p := 0; p <= 100; p++ {
		got := mapTranscriptionProgress(float64(p))
		if got < prev {
			t.Fatalf("mapping regressed at p=%d: %d < %d", p, got, prev)
		}
		prev = got
	}
}

func TestClampProgress(t *testing.T) {
	if got := clampProgress(60, 45); got != 60 {
		t.Fatalf("expected late lower value to be clamped to 60, got %d", got)
	}
	if got := clampProgress(45, 60); got != 60 {
		t.Fatalf("expected forward value 60, got %d", got)
	}
}
