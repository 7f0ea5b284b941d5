package id

import "github.com/google/uuid"

// New returns a random 128-bit identifier for jobs and uploaded files.
func New() string {
	return uuid.NewString()
}
