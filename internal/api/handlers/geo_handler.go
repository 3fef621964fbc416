package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driverfeed/internal/domain/entities"
	"driverfeed/internal/geo"
)

type GeoHandler struct {
	averageSpeedKmH float64
}

func NewGeoHandler(averageSpeedKmH float64) *GeoHandler {
	if averageSpeedKmH <= 0 {
		averageSpeedKmH = geo.DefaultAverageSpeedKmH
	}
	return &GeoHandler{averageSpeedKmH: averageSpeedKmH}
}

// EtaQuery uses pointers so that an explicit 0 is accepted while a missing
// parameter is rejected by `binding:"required"`.
type EtaQuery struct {
	FromLat  *float64 `form:"from_lat" binding:"required,min=-90,max=90"`
	FromLng  *float64 `form:"from_lng" binding:"required,min=-180,max=180"`
	ToLat    *float64 `form:"to_lat" binding:"required,min=-90,max=90"`
	ToLng    *float64 `form:"to_lng" binding:"required,min=-180,max=180"`
	SpeedKmH float64  `form:"speed_kmh" binding:"gte=0"`
}

// Eta handles GET /geo/eta.
func (h *GeoHandler) Eta(c *gin.Context) {
	var q EtaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	speed := q.SpeedKmH
	if speed == 0 {
		speed = h.averageSpeedKmH
	}

	from := entities.NewCoordinate(*q.FromLat, *q.FromLng)
	to := entities.NewCoordinate(*q.ToLat, *q.ToLng)
	distance := geo.DistanceKm(from, to)

	eta, err := geo.EtaMinutes(distance, speed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"distanceKm": distance,
		"etaMinutes": eta,
		"speedKmH":   speed,
	})
}
