package runtime

import (
	"os"

	"agentmesh/pkg/events"
	"agentmesh/pkg/intervention"
	"agentmesh/pkg/metrics"

	"github.com/rs/zerolog"
)

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithInterventions installs an ordered intervention pipeline.
func WithInterventions(handlers ...intervention.Handler) Option {
	return func(rt *Runtime) {
		rt.interventions = append(rt.interventions, handlers...)
	}
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(rt *Runtime) {
		rt.metrics = collector
	}
}

// WithEventBus attaches an events.Bus other than the runtime's default
// private one, so callers can subscribe before the runtime exists.
func WithEventBus(bus *events.Bus) Option {
	return func(rt *Runtime) {
		rt.events = bus
	}
}

// WithLogger overrides the base zerolog.Logger the runtime derives its
// "runtime" and "runtime.events" channel loggers from.
func WithLogger(logger zerolog.Logger) Option {
	return func(rt *Runtime) {
		rt.log = logger.With().Str("channel", "runtime").Logger()
		rt.eventsLog = logger.With().Str("channel", "runtime.events").Logger()
	}
}

func defaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
