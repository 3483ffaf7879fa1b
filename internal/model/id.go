package model

import "github.com/oklog/ulid/v2"

// NewID returns a new ULID string. Task ids sort by submission time.
func NewID() string {
	return ulid.Make().String()
}
