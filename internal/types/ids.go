package types

import (
	"time"

	"github.com/google/uuid"
)

// RunID is a UUIDv7 evaluation-run identifier. UUIDv7 ids are
// time-ordered, so stored runs sort by creation.
type RunID string

// NewRunID generates a UUIDv7 run identifier.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// String returns the id as its plain string form.
func (id RunID) String() string { return string(id) }

// ParseRunID validates a string as a run id, rejecting malformed UUIDs.
func ParseRunID(s string) (RunID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RunID(s), nil
}

// RunIDTime extracts the timestamp embedded in a UUIDv7 run id. Returns
// the zero time for an invalid id.
func RunIDTime(id RunID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
