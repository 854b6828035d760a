package pipeline

import "github.com/google/uuid"

// NewRunID returns a time-ordered unique identifier. Lexical order follows
// creation order, which keeps work directory listings chronological.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
