package search

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/pkg/shared"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
)

// Result is the outcome of an exhaustive search. Truncated counts findings
// known to the server but unreachable through any further decomposition;
// Failed counts partitions whose fetch ultimately errored out.
type Result struct {
	Findings  findings.Set
	Truncated int
	Failed    int
}

// Engine is the exhaustive search engine. It fetches a predicate directly and,
// when the server reports too many results, splits the predicate and recurses
// on every partition, merging the partial maps by finding key. Partition
// errors are isolated: one failing partition never aborts its siblings.
type Engine struct {
	fetcher    *Fetcher
	decomposer *Decomposer
	sem        shared.Semaphore
	logger     hclog.Logger
}

// NewEngine creates an engine around the given fetcher and decomposer. sem is
// the same semaphore the fetcher draws from: one global cap over all HTTP
// calls, shared across recursion levels.
func NewEngine(fetcher *Fetcher, decomposer *Decomposer, sem shared.Semaphore, logger hclog.Logger) *Engine {
	return &Engine{fetcher: fetcher, decomposer: decomposer, sem: sem, logger: logger}
}

// Search retrieves every finding matching the predicate. The returned map is
// keyed by finding key; duplicates across partition boundaries collapse by key.
func (e *Engine) Search(p Predicate) (*Result, error) {
	set, err := e.fetcher.Fetch(p)
	if err == nil {
		return &Result{Findings: set}, nil
	}

	tmr, tooMany := scanerrors.IsTooManyResults(err)
	if !tooMany {
		return nil, err
	}
	e.logger.Debug("predicate exceeds result cap, decomposing",
		"total", tmr.Count, "predicate", p.String())

	subs, truncate, err := e.decomposer.Split(p)
	if err != nil {
		return nil, err
	}
	if truncate {
		set, dropped, err := e.fetcher.FetchTruncated(p)
		if err != nil {
			return nil, err
		}
		e.logger.Warn("accepted truncated partition", "dropped", dropped, "predicate", p.String())
		return &Result{Findings: set, Truncated: dropped}, nil
	}

	return e.searchPartitions(subs)
}

// searchPartitions recursively searches every partition in parallel. Goroutines
// are cheap here: actual HTTP concurrency is capped by the shared semaphore
// inside the fetcher, not per recursion level.
func (e *Engine) searchPartitions(subs []Predicate) (*Result, error) {
	merged := &Result{Findings: findings.Set{}}
	var mu sync.Mutex

	shared.ForEveryWithBoundedGoroutines(len(subs), subs, func(i int, sub Predicate) {
		partial, err := e.Search(sub)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			e.logger.Error("partition search failed, continuing with siblings",
				"predicate", sub.String(), "error", err)
			// A vanished object means the cached project enumeration is stale.
			if scanerrors.IsObjectNotFound(err) {
				e.decomposer.InvalidateProjects()
			}
			merged.Failed++
			return
		}
		merged.Findings.Merge(partial.Findings)
		merged.Truncated += partial.Truncated
		merged.Failed += partial.Failed
	})

	return merged, nil
}
