package engine

import (
	"time"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

// busObserver logs failed deliveries on the engine bus. While it is
// registered the bus also keeps the metrics Tick reports.
type busObserver struct {
	logger log.Log
}

func (o *busObserver) OnPublish(string, bus.Event) {}

func (o *busObserver) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	if err == nil {
		return
	}
	o.logger.Warn("event delivery failed",
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("took", time.Duration(durationMicros)*time.Microsecond),
		log.Error(err))
}
