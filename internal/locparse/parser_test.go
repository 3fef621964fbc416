package locparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverfeed/internal/domain/entities"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{name: "empty", raw: "", want: KindEmpty},
		{name: "whitespace", raw: "   ", want: KindEmpty},
		{name: "object", raw: `{"latitude":41.0,"longitude":29.0}`, want: KindObject},
		{name: "object with leading space", raw: ` {"latitude":41.0}`, want: KindUnrecognized},
		{name: "double encoded with leading space", raw: ` "{\"latitude\":41.0}"`, want: KindUnrecognized},
		{name: "double encoded inner leading space", raw: `" {\"latitude\":41.0}"`, want: KindUnrecognized},
		{name: "double encoded", raw: `"{\"latitude\":41.0,\"longitude\":29.0}"`, want: KindDoubleEncoded},
		{name: "string without object", raw: `"41.0,29.0"`, want: KindUnrecognized},
		{name: "broken string literal", raw: `"{\"latitude\"`, want: KindUnrecognized},
		{name: "triple encoded", raw: `"\"{\\\"latitude\\\":41.0}\""`, want: KindUnrecognized},
		{name: "garbage", raw: "garbage", want: KindUnrecognized},
		{name: "array", raw: "[41.0,29.0]", want: KindUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw).Kind)
		})
	}
}

func TestDecode_Valid(t *testing.T) {
	want := entities.NewCoordinate(41.0, 29.0)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "object", raw: `{"latitude":41.0,"longitude":29.0}`},
		{name: "double encoded", raw: `"{\"latitude\":41.0,\"longitude\":29.0}"`},
		{name: "extra fields ignored", raw: `{"latitude":41.0,"longitude":29.0,"accuracy":12}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecode_Rejected(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{name: "empty", raw: "", err: ErrEmpty},
		{name: "garbage", raw: "garbage", err: ErrUnrecognized},
		{name: "object after whitespace", raw: ` {"latitude":41.0,"longitude":29.0}`, err: ErrUnrecognized},
		{name: "broken json", raw: `{"latitude":41.0,`, err: ErrMalformed},
		{name: "string latitude", raw: `{"latitude":"41.0","longitude":29.0}`, err: ErrMalformed},
		{name: "missing longitude", raw: `{"latitude":41.0}`, err: ErrMissingAxis},
		{name: "missing both", raw: `{}`, err: ErrMissingAxis},
		{name: "null latitude", raw: `{"latitude":null,"longitude":29.0}`, err: ErrMissingAxis},
		{name: "zero latitude treated as unset", raw: `{"latitude":0,"longitude":29.0}`, err: ErrMissingAxis},
		{name: "zero longitude treated as unset", raw: `{"latitude":41.0,"longitude":0}`, err: ErrMissingAxis},
		{name: "latitude out of range", raw: `{"latitude":91.0,"longitude":29.0}`, err: ErrOutOfRange},
		{name: "longitude out of range", raw: `{"latitude":41.0,"longitude":-180.5}`, err: ErrOutOfRange},
		{name: "double encoded garbage object", raw: `"{not json}"`, err: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParse(t *testing.T) {
	coord, ok := Parse(`{"latitude":41.0,"longitude":29.0}`)
	assert.True(t, ok)
	assert.Equal(t, entities.NewCoordinate(41.0, 29.0), coord)

	_, ok = Parse("garbage")
	assert.False(t, ok)

	var post entities.Post
	_, ok = Parse(post.RawCoordinates())
	assert.False(t, ok, "a NULL payload must not parse")
}
