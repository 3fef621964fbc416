package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"driverfeed/internal/api/handlers"
	"driverfeed/internal/api/middleware"
)

type Router struct {
	feedHandler *handlers.FeedHandler
	geoHandler  *handlers.GeoHandler
	log         *zap.Logger
}

func NewRouter(feedHandler *handlers.FeedHandler, geoHandler *handlers.GeoHandler, log *zap.Logger) *Router {
	return &Router{
		feedHandler: feedHandler,
		geoHandler:  geoHandler,
		log:         log,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.RequestID(), middleware.Logger(r.log), gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	drivers := engine.Group("/drivers")
	{
		drivers.GET("/active", r.feedHandler.ListActive)
		drivers.GET("/active/ws", r.feedHandler.StreamActive)
	}

	engine.GET("/geo/eta", r.geoHandler.Eta)
}
