package util

import (
	"github.com/google/uuid"
)

// NewID returns a random identifier for sessions, participants, messages and
// reports.
func NewID() string {
	return uuid.New().String()
}
