package cepgo

import (
	"log/slog"

	"github.com/hupe1980/cepgo/rowop"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	copyTray         *rowop.Tray
}

// Option configures a Table.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &cepgo.BasicMetricsCollector{}
//	t, _ := cepgo.NewTable(tt, "trades", cepgo.WithMetricsCollector(metrics))
//	// ... use t ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Rejected: %d\n", stats.InsertCount, stats.RejectCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := cepgo.NewJSONLogger(slog.LevelInfo)
//	t, _ := cepgo.NewTable(tt, "trades", cepgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCopyTray makes every operation also append copies of its output
// rowops to tray. The caller owns tray and must release it.
func WithCopyTray(tray *rowop.Tray) Option {
	return func(o *options) {
		o.copyTray = tray
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
