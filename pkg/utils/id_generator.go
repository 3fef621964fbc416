// Package utils provides small helpers shared by the stores and tools.
//
// Go Learning Note — "pkg/" Directory Convention:
// Code under pkg/ is intended to be importable by external projects (unlike
// internal/ which is compiler-enforced private). This is a community convention,
// not a Go language feature.
package utils

import (
	"github.com/google/uuid"
)

// GenerateID creates a random UUID v4 string for a post that arrives without
// an ID, such as a seed fixture entry.
//
// Go Learning Note — "github.com/google/uuid":
// uuid.NewString() panics only if the system's random source fails. UUIDs can
// be generated without coordination, so the memory store needs no counter.
func GenerateID() string {
	return uuid.NewString()
}
