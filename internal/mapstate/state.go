// Package mapstate keeps a map client's marker set in step with the
// active-driver feed.
//
// Markers are keyed by post ID rather than driver ID: one driver may hold
// several qualifying posts and each one is its own marker.
package mapstate

import (
	"sort"
	"sync"

	"driverfeed/internal/domain/entities"
	"driverfeed/internal/geo"
)

// Marker is one rendered driver. DistanceKm and EtaMinutes are filled only
// when a viewer position is known.
type Marker struct {
	entities.DriverLocation
	DistanceKm *float64
	EtaMinutes *int
}

// Diff lists the post IDs touched by one Apply, each slice sorted.
type Diff struct {
	Added   []string
	Updated []string
	Removed []string
}

// Empty is true only when both the previous and the new marker sets were
// empty.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// MapState is safe for concurrent use: the poller applies snapshots from its
// own goroutine while the UI side reads markers.
type MapState struct {
	mu       sync.RWMutex
	markers  map[string]entities.DriverLocation
	viewer   *entities.Coordinate
	speedKmH float64
}

// New returns an empty MapState. avgSpeedKmH drives ETA estimates; a
// non-positive value uses geo.DefaultAverageSpeedKmH.
func New(avgSpeedKmH float64) *MapState {
	if avgSpeedKmH <= 0 {
		avgSpeedKmH = geo.DefaultAverageSpeedKmH
	}
	return &MapState{
		markers:  make(map[string]entities.DriverLocation),
		speedKmH: avgSpeedKmH,
	}
}

// Apply reconciles the marker set with a full snapshot. Markers missing from
// the snapshot are removed, present ones are replaced in place (the position
// may have moved) and unseen post IDs are added. If the snapshot repeats a
// post ID the last occurrence wins.
func (s *MapState) Apply(snapshot []entities.DriverLocation) Diff {
	next := make(map[string]entities.DriverLocation, len(snapshot))
	for _, d := range snapshot {
		next[d.PostID] = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var diff Diff
	for id := range s.markers {
		if _, ok := next[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	for id := range next {
		if _, ok := s.markers[id]; ok {
			diff.Updated = append(diff.Updated, id)
		} else {
			diff.Added = append(diff.Added, id)
		}
	}
	s.markers = next

	sort.Strings(diff.Added)
	sort.Strings(diff.Updated)
	sort.Strings(diff.Removed)
	return diff
}

// SetViewer records the user's position so markers carry distance and ETA.
func (s *MapState) SetViewer(c entities.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer = &c
}

func (s *MapState) ClearViewer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer = nil
}

func (s *MapState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// Marker returns the marker for postID.
func (s *MapState) Marker(postID string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.markers[postID]
	if !ok {
		return Marker{}, false
	}
	return s.decorate(d), true
}

// Markers returns every marker ordered by post ID.
func (s *MapState) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Marker, 0, len(s.markers))
	for _, d := range s.markers {
		out = append(out, s.decorate(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostID < out[j].PostID })
	return out
}

// decorate must be called with s.mu held.
func (s *MapState) decorate(d entities.DriverLocation) Marker {
	m := Marker{DriverLocation: d}
	if s.viewer == nil {
		return m
	}
	distance := geo.DistanceKm(*s.viewer, d.Coordinate)
	m.DistanceKm = &distance
	if eta, err := geo.EtaMinutes(distance, s.speedKmH); err == nil {
		m.EtaMinutes = &eta
	}
	return m
}

// Route decodes an encoded polyline for display. ok is false when there is
// nothing to draw, which covers both malformed input and an empty string.
func Route(encoded string) (route geo.Route, ok bool) {
	route = geo.DecodePolyline(encoded)
	return route, !route.IsEmpty()
}
