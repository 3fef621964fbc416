package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverfeed/internal/domain/entities"
)

// referencePolyline is the worked example from the polyline algorithm
// documentation.
const referencePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var referenceRoute = Route{
	entities.NewCoordinate(38.5, -120.2),
	entities.NewCoordinate(40.7, -120.95),
	entities.NewCoordinate(43.252, -126.453),
}

func TestDecodePolyline_Reference(t *testing.T) {
	assert.Equal(t, referenceRoute, DecodePolyline(referencePolyline))
}

func TestDecodePolyline_Empty(t *testing.T) {
	route := DecodePolyline("")
	require.NotNil(t, route)
	assert.True(t, route.IsEmpty())
}

func TestDecodePolyline_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{name: "latitude without longitude", encoded: "_p~iF"},
		{name: "truncated varint", encoded: "_p~iF~ps|"},
		{name: "byte below alphabet", encoded: "_p~iF ps|U"},
		{name: "byte above alphabet", encoded: "_p~iF\x7fps|U"},
		{name: "oversized varint", encoded: strings.Repeat("~", 8) + "?" + "??"},
		{name: "latitude out of range", encoded: EncodePolyline(Route{entities.NewCoordinate(95, 10)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := DecodePolyline(tt.encoded)
			require.NotNil(t, route)
			assert.Empty(t, route)
		})
	}
}

func TestEncodePolyline_Reference(t *testing.T) {
	assert.Equal(t, referencePolyline, EncodePolyline(referenceRoute))
}

func TestPolyline_RoundTripNegativeAndSmallDeltas(t *testing.T) {
	route := Route{
		entities.NewCoordinate(41.00001, 29.00001),
		entities.NewCoordinate(41.00002, 28.99999),
		entities.NewCoordinate(-12.5, -77.03),
	}

	assert.Equal(t, route, DecodePolyline(EncodePolyline(route)))
}

func TestRoute_LengthKm(t *testing.T) {
	assert.Equal(t, 0.0, Route{}.LengthKm())

	legs := DistanceKm(referenceRoute[0], referenceRoute[1]) + DistanceKm(referenceRoute[1], referenceRoute[2])
	assert.InDelta(t, legs, referenceRoute.LengthKm(), 1e-9)
}
