// Package handlers holds the gin handlers for the driver feed and geo
// endpoints.
//
// Go Learning Note — Small Interfaces at the Consumer:
// Handlers depend on the one method they call (FetchSnapshot), not on the
// concrete *services.PresenceFeed. Tests can hand in any type with that method.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"driverfeed/internal/domain/entities"
	"driverfeed/internal/services"
)

// SnapshotSource yields the current active-driver set.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) ([]entities.DriverLocation, error)
}

// ActiveDriverResponse is one marker as map clients receive it.
type ActiveDriverResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	HasCustomPhoto bool     `json:"hasCustomPhoto"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	PostID         string   `json:"postId"`
	DistanceKm     *float64 `json:"distanceKm,omitempty"`
}

// ProximityQuery is the optional caller position for GET /drivers/active.
// Either both coordinates are present or neither is.
type ProximityQuery struct {
	Lat      *float64 `form:"lat" binding:"omitempty,min=-90,max=90"`
	Lng      *float64 `form:"lng" binding:"omitempty,min=-180,max=180"`
	RadiusKm float64  `form:"radius_km" binding:"gte=0"`
}

const (
	// Push connection tuning, same shape as the usual gorilla/websocket pumps.
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 512

	msgTypeSnapshot = "snapshot"
	msgTypeError    = "error"
)

// SnapshotMessage carries a full active-driver set to push subscribers.
// Drivers is always present; an empty set is sent as [].
type SnapshotMessage struct {
	Type    string                 `json:"type"`
	Drivers []ActiveDriverResponse `json:"drivers"`
}

// ErrorMessage tells push subscribers a snapshot could not be produced.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Map clients are served from other origins; the feed carries no
	// per-user data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedHandler serves the active-driver set by pull and by push.
type FeedHandler struct {
	feed         SnapshotSource
	pushInterval time.Duration
	log          *zap.Logger
}

func NewFeedHandler(feed SnapshotSource, pushInterval time.Duration, log *zap.Logger) *FeedHandler {
	if pushInterval <= 0 {
		pushInterval = 30 * time.Second
	}
	return &FeedHandler{feed: feed, pushInterval: pushInterval, log: log}
}

// ListActive handles GET /drivers/active.
//
// The body is always a JSON array; an empty set is "[]", never null. With
// lat and lng present the set is limited to radius_km (when > 0) and ordered
// nearest first.
func (h *FeedHandler) ListActive(c *gin.Context) {
	var q ProximityQuery
	if err := c.ShouldBindQuery(&q); err != nil || (q.Lat == nil) != (q.Lng == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proximity query"})
		return
	}

	snapshot, err := h.feed.FetchSnapshot(c.Request.Context())
	if err != nil {
		status, body := feedErrorResponse(err)
		h.log.Error("active driver snapshot failed", zap.Int("status", status), zap.Error(err))
		c.JSON(status, gin.H{"error": body})
		return
	}

	if q.Lat == nil {
		c.JSON(http.StatusOK, toResponses(snapshot))
		return
	}

	origin := entities.NewCoordinate(*q.Lat, *q.Lng)
	nearby := services.NearbyDrivers(snapshot, origin, q.RadiusKm)
	out := make([]ActiveDriverResponse, 0, len(nearby))
	for _, n := range nearby {
		resp := toResponse(n.Driver)
		distance := n.DistanceKm
		resp.DistanceKm = &distance
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// StreamActive handles GET /drivers/active/ws. It upgrades the connection and
// writes a full snapshot immediately and then on every push interval until
// the client goes away or the request context ends.
func (h *FeedHandler) StreamActive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The read side only handles control frames; a read error means the
	// client is gone.
	go func() {
		defer cancel()
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pushTicker := time.NewTicker(h.pushInterval)
	defer pushTicker.Stop()
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	if err := h.pushSnapshot(ctx, conn); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-pushTicker.C:
			if err := h.pushSnapshot(ctx, conn); err != nil {
				return
			}
		case <-pingTicker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *FeedHandler) pushSnapshot(ctx context.Context, conn *websocket.Conn) error {
	var msg any
	snapshot, err := h.feed.FetchSnapshot(ctx)
	if err != nil {
		_, body := feedErrorResponse(err)
		h.log.Warn("push snapshot failed", zap.Error(err))
		msg = ErrorMessage{Type: msgTypeError, Error: body}
	} else {
		msg = SnapshotMessage{Type: msgTypeSnapshot, Drivers: toResponses(snapshot)}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug("push write failed", zap.Error(err))
		return err
	}
	return nil
}

// feedErrorResponse maps a feed error to a status and an opaque body. Store
// details stay in the logs.
func feedErrorResponse(err error) (int, string) {
	if errors.Is(err, services.ErrUnavailable) {
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

func toResponses(snapshot []entities.DriverLocation) []ActiveDriverResponse {
	out := make([]ActiveDriverResponse, 0, len(snapshot))
	for _, d := range snapshot {
		out = append(out, toResponse(d))
	}
	return out
}

func toResponse(d entities.DriverLocation) ActiveDriverResponse {
	return ActiveDriverResponse{
		ID:             d.DriverID,
		Name:           d.DisplayName,
		HasCustomPhoto: d.HasCustomPhoto,
		Latitude:       d.Coordinate.Latitude,
		Longitude:      d.Coordinate.Longitude,
		PostID:         d.PostID,
	}
}
