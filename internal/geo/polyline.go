package geo

import (
	"math"
	"strings"

	"driverfeed/internal/domain/entities"
)

// polylinePrecision is the fixed-point scale of the Google polyline format
// (5 decimal digits).
const polylinePrecision = 1e5

// maxChunkShift bounds a single varint to 7 five-bit chunks. Real coordinate
// deltas fit in 6; anything longer is a corrupt stream.
const maxChunkShift = 30

// Route is an ordered sequence of coordinates decoded from an encoded
// polyline. It is never mutated after decoding.
type Route []entities.Coordinate

// IsEmpty reports whether the route has no points. Callers treat an empty
// route as "no route available".
func (r Route) IsEmpty() bool {
	return len(r) == 0
}

// LengthKm sums the great-circle length of every segment.
func (r Route) LengthKm() float64 {
	total := 0.0
	for i := 1; i < len(r); i++ {
		total += DistanceKm(r[i-1], r[i])
	}
	return total
}

// DecodePolyline decodes a Google encoded polyline (precision 1e-5).
//
// Any malformed input (a byte outside the alphabet, a truncated or oversized
// varint, a latitude without its longitude, or a point outside the valid
// coordinate range) yields an empty, non-nil Route rather than an error.
//
// Go Learning Note — Fixed-Point Accumulation:
// Each value in the stream is a delta from the previous point. Accumulating in
// int and dividing by the scale only when emitting a point keeps the decoded
// coordinates exact to 5 decimals; accumulating floats would drift.
func DecodePolyline(encoded string) Route {
	route := Route{}
	lat, lng := 0, 0
	index := 0

	for index < len(encoded) {
		dLat, next, ok := decodeValue(encoded, index)
		if !ok || next >= len(encoded) {
			return Route{}
		}
		dLng, next, ok := decodeValue(encoded, next)
		if !ok {
			return Route{}
		}
		index = next

		lat += dLat
		lng += dLng

		coord := entities.NewCoordinate(float64(lat)/polylinePrecision, float64(lng)/polylinePrecision)
		if !coord.InRange() {
			return Route{}
		}
		route = append(route, coord)
	}

	return route
}

// decodeValue reads one zigzag-encoded varint starting at index and returns
// the value and the index just past it.
func decodeValue(encoded string, index int) (value, next int, ok bool) {
	result := 0
	shift := 0

	for {
		if index >= len(encoded) || shift > maxChunkShift {
			return 0, index, false
		}
		b := int(encoded[index]) - 63
		index++
		if b < 0 || b > 63 {
			return 0, index, false
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, true
	}
	return result >> 1, index, true
}

// EncodePolyline is the inverse of DecodePolyline. Coordinates are rounded to
// 5 decimal digits.
func EncodePolyline(route Route) string {
	var sb strings.Builder
	prevLat, prevLng := 0, 0

	for _, c := range route {
		lat := int(math.Round(c.Latitude * polylinePrecision))
		lng := int(math.Round(c.Longitude * polylinePrecision))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}

	return sb.String()
}

func encodeValue(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}
