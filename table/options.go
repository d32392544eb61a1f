package table

import (
	"log/slog"

	"github.com/hupe1980/cepgo/row"
)

// Observer is told about every accepted or rejected change of a table.
type Observer interface {
	OnInsert(t *Table, rh *RowHandle)
	OnDelete(t *Table, rh *RowHandle)
	OnReject(t *Table, r *row.Row, err error)
}

// NoopObserver ignores everything.
type NoopObserver struct{}

func (NoopObserver) OnInsert(*Table, *RowHandle)      {}
func (NoopObserver) OnDelete(*Table, *RowHandle)      {}
func (NoopObserver) OnReject(*Table, *row.Row, error) {}

type options struct {
	logger   *slog.Logger
	observer Observer
}

// Option configures a Table.
type Option func(*options)

// WithLogger sets the logger. Groups being created and collapsed are
// logged at debug level, rejected rows at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver sets the observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:   slog.New(slog.DiscardHandler),
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
