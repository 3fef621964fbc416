// Command mapwatch polls a driverfeed server the way a map client does and
// logs marker changes, optionally with distance and ETA from a viewer point.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"driverfeed/internal/config"
	"driverfeed/internal/domain/entities"
	"driverfeed/internal/feedclient"
	"driverfeed/internal/logger"
	"driverfeed/internal/mapstate"
)

func main() {
	defaults := config.NewDefaultConfig()

	server := flag.String("server", "http://localhost:8080", "driverfeed base URL")
	interval := flag.Duration("interval", defaults.Feed.PollInterval, "poll interval")
	lat := flag.Float64("lat", 0, "viewer latitude (0 disables distance/ETA)")
	lng := flag.Float64("lng", 0, "viewer longitude")
	speed := flag.Float64("speed", defaults.Geo.AverageSpeedKmH, "average speed for ETA in km/h")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	appLogger, err := logger.New(*logLevel, "console")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	client, err := feedclient.New(*server, nil)
	if err != nil {
		appLogger.Fatal("invalid server url", zap.String("server", *server), zap.Error(err))
	}

	state := mapstate.New(*speed)
	viewer := entities.NewCoordinate(*lat, *lng)
	if viewer.Latitude != 0 && viewer.Longitude != 0 && viewer.InRange() {
		state.SetViewer(viewer)
	}

	poller := mapstate.NewPoller(client, state, *interval, appLogger)
	poller.OnUpdate(func(diff mapstate.Diff) {
		appLogger.Info("markers reconciled",
			zap.Strings("added", diff.Added),
			zap.Strings("removed", diff.Removed),
			zap.Int("total", state.Len()))
		for _, m := range state.Markers() {
			fields := []zap.Field{
				zap.String("post_id", m.PostID),
				zap.String("driver_id", m.DriverID),
				zap.String("name", m.DisplayName),
				zap.Float64("latitude", m.Coordinate.Latitude),
				zap.Float64("longitude", m.Coordinate.Longitude),
			}
			if m.DistanceKm != nil {
				fields = append(fields, zap.Float64("distance_km", *m.DistanceKm))
			}
			if m.EtaMinutes != nil {
				fields = append(fields, zap.Int("eta_minutes", *m.EtaMinutes))
			}
			appLogger.Debug("marker", fields...)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("watching active drivers", zap.String("server", *server), zap.Duration("interval", *interval))
	poller.Start(ctx)
	<-ctx.Done()
	poller.Stop()
	appLogger.Info("stopped", zap.Int64("skipped_ticks", poller.Skipped()), zap.Int64("snapshots", poller.Completed()))
}
