package utils

import "github.com/google/uuid"

// NewID returns a random identifier used to trace a single command
// through logs and errors.
func NewID() string {
	return uuid.NewString()
}
