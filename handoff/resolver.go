package handoff

import (
	"errors"

	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
)

// ErrUnknownLabel is returned by MapResolver for names it does not hold.
var ErrUnknownLabel = errors.New("handoff: unknown label")

// Resolver maps a label name carried by a frame to a label of the receiver.
// rt is the row type described by the frame; the returned label's row type
// must match it.
type Resolver interface {
	Resolve(name string, rt row.Type) (rowop.Label, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string, rt row.Type) (rowop.Label, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(name string, rt row.Type) (rowop.Label, error) { return f(name, rt) }

// MapResolver resolves labels by name.
type MapResolver map[string]rowop.Label

// NewMapResolver indexes labels by name.
func NewMapResolver(labels ...rowop.Label) MapResolver {
	m := make(MapResolver, len(labels))
	for _, l := range labels {
		m[l.Name()] = l
	}
	return m
}

// Resolve returns the label registered under name.
func (m MapResolver) Resolve(name string, _ row.Type) (rowop.Label, error) {
	if l, ok := m[name]; ok {
		return l, nil
	}
	return nil, ErrUnknownLabel
}
