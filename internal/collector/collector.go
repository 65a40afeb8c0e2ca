package collector

import (
	"context"
	"fmt"

	"RfpFinder/internal/domain"
)

// Request carries all parameters required to execute one collection pass.
// Collectors produce bare candidates; classification and final ids are the
// core's responsibility.
type Request struct {
	SourceName string
	State      string // two-letter code, or "US"
	URL        string
	Options    map[string]string
}

// Collector captures a single source strategy (SAM.gov, Bonfirehub, generic
// municipal site). Implementations own their politeness policy: request
// timeouts, randomized delays, bounded depth and link fan-out.
type Collector interface {
	Name() string
	Collect(ctx context.Context, req Request) ([]domain.Candidate, error)
}

// Registry keeps a mapping from collector names to their implementations.
type Registry struct {
	collectors map[string]Collector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{collectors: map[string]Collector{}}
}

// Register adds or replaces a collector implementation.
func (r *Registry) Register(c Collector) {
	if r.collectors == nil {
		r.collectors = map[string]Collector{}
	}
	r.collectors[c.Name()] = c
}

// Resolve returns a collector by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Collector, error) {
	if c, ok := r.collectors[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("collector %s is not registered", name)
}
