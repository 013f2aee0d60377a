package search

import (
	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/platform"
	"github.com/sonarsync/sonarsync/pkg/shared"
	"github.com/sonarsync/sonarsync/pkg/shared/config"
)

// NewIssueEngine wires an exhaustive search engine over the issue endpoint of
// one platform, with a fresh global semaphore for that platform's HTTP calls.
func NewIssueEngine(client *platform.Client, cfg config.Sync, logger hclog.Logger) *Engine {
	defaults := config.DefaultSyncConfig()
	workers := config.SetThen(cfg.Workers, defaults.Workers)
	sem := shared.NewSemaphore(workers)
	api := IssueAPI{Client: client}
	fetcher := NewFetcher(api, sem, logger,
		config.SetThen(cfg.PageSize, defaults.PageSize),
		config.SetThen(cfg.SearchCeiling, defaults.SearchCeiling))
	decomposer := NewDecomposer(api, logger, IssueCapabilities())
	return NewEngine(fetcher, decomposer, sem, logger)
}

// NewHotspotEngine wires an exhaustive search engine over the hotspot endpoint
// of one platform.
func NewHotspotEngine(client *platform.Client, cfg config.Sync, logger hclog.Logger) *Engine {
	defaults := config.DefaultSyncConfig()
	workers := config.SetThen(cfg.Workers, defaults.Workers)
	sem := shared.NewSemaphore(workers)
	api := HotspotAPI{Client: client}
	fetcher := NewFetcher(api, sem, logger,
		config.SetThen(cfg.PageSize, defaults.PageSize),
		config.SetThen(cfg.SearchCeiling, defaults.SearchCeiling))
	decomposer := NewDecomposer(api, logger, HotspotCapabilities())
	return NewEngine(fetcher, decomposer, sem, logger)
}

// ScopedPredicate builds the base predicate for a component scope. A nil
// component leaves the predicate unscoped; the decomposer then splits by
// project first if the result set is oversized.
func ScopedPredicate(c platform.Component) Predicate {
	p := NewPredicate()
	for name, value := range platform.ComponentParams(c) {
		p = p.With(name, value)
	}
	return p
}
