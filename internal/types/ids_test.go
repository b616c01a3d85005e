package types

import (
	"testing"
	"time"
)

func TestParseRunID_RoundTrip(t *testing.T) {
	id := NewRunID()
	parsed, err := ParseRunID(id.String())
	if err != nil {
		t.Fatalf("ParseRunID() error = %v, want nil", err)
	}
	if parsed != id {
		t.Errorf("ParseRunID() = %v, want %v", parsed, id)
	}
}

func TestParseRunID_Invalid(t *testing.T) {
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Error("ParseRunID(not-a-uuid) error = nil, want parse failure")
	}
}

func TestRunIDTime(t *testing.T) {
	id := NewRunID()
	ts := RunIDTime(id)
	if ts.IsZero() {
		t.Fatal("RunIDTime() = zero time for a fresh id")
	}
	if d := time.Since(ts); d < -time.Minute || d > time.Minute {
		t.Errorf("RunIDTime() = %v, want within a minute of now", ts)
	}
	if !RunIDTime(RunID("garbage")).IsZero() {
		t.Error("RunIDTime(garbage) = non-zero time for an invalid id")
	}
}
