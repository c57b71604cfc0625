// Package reviewer holds the business and review document models shared by the
// repository, service and handler layers.
package reviewer

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert collides with an existing id or a
	// replace lost a race with a concurrent writer.
	ErrConflict = errors.New("conflict")
)
