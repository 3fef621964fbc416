package entities

import "math"

// Coordinate is a decoded latitude/longitude pair in degrees.
//
// Go Learning Note — Value Types vs Reference Types:
// Coordinate is a small, immutable data holder (two float64s, 16 bytes). It is
// passed and returned by value everywhere; copies are cheap and nobody can
// mutate a coordinate another component is holding.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate creates a Coordinate value from latitude and longitude.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{
		Latitude:  lat,
		Longitude: lng,
	}
}

// IsFinite reports whether both axes are real numbers.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Latitude) && !math.IsInf(c.Latitude, 0) &&
		!math.IsNaN(c.Longitude) && !math.IsInf(c.Longitude, 0)
}

// InRange reports whether the coordinate lies inside [-90,90] x [-180,180].
func (c Coordinate) InRange() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// DriverLocation is the public view of one active driver post. It is derived
// fresh on every query and never persisted. A user with two qualifying posts
// yields two DriverLocations, distinguished by PostID.
type DriverLocation struct {
	DriverID       string     `json:"driver_id"`
	DisplayName    string     `json:"display_name"`
	HasCustomPhoto bool       `json:"has_custom_photo"`
	Coordinate     Coordinate `json:"coordinate"`
	PostID         string     `json:"post_id"`
}

// NewDriverLocation projects a post and its decoded coordinate into the
// public record.
func NewDriverLocation(p PostWithUser, coord Coordinate) DriverLocation {
	return DriverLocation{
		DriverID:       p.User.ID,
		DisplayName:    p.User.DisplayName,
		HasCustomPhoto: p.User.HasCustomPhoto,
		Coordinate:     coord,
		PostID:         p.Post.ID,
	}
}
