package ratelimit

import (
	"testing"
	"time"
)

func TestDecisionFromReply(t *testing.T) {
	d, err := decisionFromReply([]any{int64(1), int64(4), int64(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Remaining != 4 || d.RetryAfter != 0 {
		t.Fatalf("unexpected decision: %+v", d)
	}

	d, err = decisionFromReply([]any{int64(0), int64(0), int64(1500)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed || d.RetryAfter != 1500*time.Millisecond {
		t.Fatalf("unexpected decision: %+v", d)
	}

	if _, err := decisionFromReply("nope"); err == nil {
		t.Fatal("expected error for malformed reply")
	}
	if _, err := decisionFromReply([]any{int64(1)}); err == nil {
		t.Fatal("expected error for short reply")
	}
}

func TestNewTokenBucketValidation(t *testing.T) {
	if _, err := NewTokenBucket(nil, 10, time.Minute, ""); err == nil {
		t.Fatal("expected error for nil client")
	}
}
