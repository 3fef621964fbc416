package locparse

import (
	"encoding/json"
	"errors"
	"fmt"

	"driverfeed/internal/domain/entities"
)

var (
	ErrEmpty        = errors.New("location payload is empty")
	ErrUnrecognized = errors.New("location payload format not recognized")
	ErrMalformed    = errors.New("location payload is not a valid JSON object")
	ErrMissingAxis  = errors.New("location payload is missing latitude or longitude")
	ErrOutOfRange   = errors.New("location payload is outside the valid coordinate range")
)

// locationObject mirrors the stored JSON object. Pointer fields distinguish
// an absent key from an explicit value.
type locationObject struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Decode parses a raw stored payload into a coordinate.
//
// A latitude or longitude of exactly 0 is treated the same as a missing one
// and yields ErrMissingAxis. This discards genuine positions on the equator or
// the prime meridian; the behavior is kept for compatibility with how existing
// posts were written.
func Decode(raw string) (entities.Coordinate, error) {
	payload := Classify(raw)

	switch payload.Kind {
	case KindEmpty:
		return entities.Coordinate{}, ErrEmpty
	case KindUnrecognized:
		return entities.Coordinate{}, ErrUnrecognized
	case KindObject, KindDoubleEncoded:
		return decodeObject(payload.Object)
	default:
		return entities.Coordinate{}, fmt.Errorf("%w: kind %d", ErrUnrecognized, payload.Kind)
	}
}

// Parse is Decode without the reason: ok is false whenever the record should
// be dropped.
func Parse(raw string) (entities.Coordinate, bool) {
	coord, err := Decode(raw)
	return coord, err == nil
}

func decodeObject(object string) (entities.Coordinate, error) {
	var obj locationObject
	if err := json.Unmarshal([]byte(object), &obj); err != nil {
		return entities.Coordinate{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if obj.Latitude == nil || obj.Longitude == nil || *obj.Latitude == 0 || *obj.Longitude == 0 {
		return entities.Coordinate{}, ErrMissingAxis
	}

	coord := entities.NewCoordinate(*obj.Latitude, *obj.Longitude)
	if !coord.IsFinite() || !coord.InRange() {
		return entities.Coordinate{}, ErrOutOfRange
	}
	return coord, nil
}
