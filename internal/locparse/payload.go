// Package locparse decodes the location payloads stored on ride posts.
//
// Stored payloads come in exactly three shapes: a JSON object
// {"latitude":..,"longitude":..}, the same object wrapped in a JSON string
// (double-encoded), or something unrecognized. Classify turns the raw string
// into a Payload tagged with its shape, and Decode turns a Payload into a
// validated Coordinate.
package locparse

import (
	"encoding/json"
	"strings"
)

// Kind tags the shape of a raw location payload.
type Kind int

const (
	KindEmpty Kind = iota
	KindObject
	KindDoubleEncoded
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindObject:
		return "object"
	case KindDoubleEncoded:
		return "double_encoded"
	default:
		return "unrecognized"
	}
}

// Payload is a classified raw location payload. For KindObject and
// KindDoubleEncoded, Object holds the JSON object text to decode; for the
// other kinds it is empty.
type Payload struct {
	Kind   Kind
	Raw    string
	Object string
}

// Classify inspects raw and tags its shape. The shape is decided by the first
// byte, so leading whitespace makes a payload unrecognized; a blank payload
// counts as empty. It unwraps at most one level of string encoding: a string
// whose content is itself a JSON string is unrecognized.
//
// Go Learning Note — Tagged Unions:
// Go has no sum types. The idiomatic stand-in is a struct with a Kind
// discriminator and a switch over it. The switch in Decode covers every Kind,
// so each shape has one explicit branch that tests can hit directly.
func Classify(raw string) Payload {
	switch {
	case strings.TrimSpace(raw) == "":
		return Payload{Kind: KindEmpty, Raw: raw}
	case strings.HasPrefix(raw, "{"):
		return Payload{Kind: KindObject, Raw: raw, Object: raw}
	case strings.HasPrefix(raw, `"`):
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err != nil {
			return Payload{Kind: KindUnrecognized, Raw: raw}
		}
		if !strings.HasPrefix(inner, "{") {
			return Payload{Kind: KindUnrecognized, Raw: raw}
		}
		return Payload{Kind: KindDoubleEncoded, Raw: raw, Object: inner}
	default:
		return Payload{Kind: KindUnrecognized, Raw: raw}
	}
}
