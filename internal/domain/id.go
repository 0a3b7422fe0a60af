package domain

import "github.com/oklog/ulid/v2"

// NewID returns a lexically sortable, time-ordered record identifier.
func NewID() string {
	return ulid.Make().String()
}
