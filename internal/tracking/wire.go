package tracking

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"swiftparcel/internal/config"
)

func NewModule(client *redis.Client, finder OrderFinder, cfg config.TrackingConfig, averageSpeedKMH float64, logger *zap.Logger) *Controller {
	store := NewRedisStore(client, cfg.SampleTTL)
	router := NewStraightLineRouter(averageSpeedKMH)
	orch := NewOrchestrator(store, router, cfg.RouteThresholdMeters, logger)
	return NewController(finder, store, orch, logger)
}
