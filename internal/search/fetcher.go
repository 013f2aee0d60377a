package search

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/platform"
	"github.com/sonarsync/sonarsync/pkg/shared"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
)

// PageAPI is the page-level search call of the platform API.
type PageAPI interface {
	SearchPage(p Predicate, page, pageSize int) (*platform.SearchResult, error)
}

// Fetcher executes one predicate's pages against the API and merges the
// per-page results into a keyed map. Page 1 is always fetched synchronously,
// both to learn the total page count and to fail fast; the remaining pages go
// through the shared semaphore so total HTTP concurrency stays capped across
// every fetch and recursion level of a search.
type Fetcher struct {
	api      PageAPI
	sem      shared.Semaphore
	logger   hclog.Logger
	pageSize int
	ceiling  int
}

// NewFetcher creates a fetcher with the given page size and result-count
// safety ceiling, drawing HTTP slots from sem.
func NewFetcher(api PageAPI, sem shared.Semaphore, logger hclog.Logger, pageSize, ceiling int) *Fetcher {
	if pageSize <= 0 {
		pageSize = 500
	}
	if ceiling <= 0 {
		ceiling = 10000
	}
	return &Fetcher{api: api, sem: sem, logger: logger, pageSize: pageSize, ceiling: ceiling}
}

// Fetch retrieves every finding matching the predicate, keyed by finding key.
// It fails with TooManyResultsError when the server reports more results than
// the safety ceiling, regardless of how many the caller would consume.
func (f *Fetcher) Fetch(p Predicate) (findings.Set, error) {
	f.sem.Acquire()
	first, err := f.api.SearchPage(p, 1, f.pageSize)
	f.sem.Release()
	if err != nil {
		return nil, err
	}
	if first.Paging.Total > f.ceiling {
		return nil, scanerrors.NewTooManyResultsError(first.Paging.Total, f.ceiling)
	}
	return f.fetchRemaining(p, first, pageCount(first.Paging.Total, f.pageSize))
}

// FetchTruncated retrieves as many findings as the server will serve for an
// unsplittable oversized predicate, reporting how many were dropped. Findings
// beyond the server's absolute page window are lost, not duplicated.
func (f *Fetcher) FetchTruncated(p Predicate) (findings.Set, int, error) {
	f.sem.Acquire()
	first, err := f.api.SearchPage(p, 1, f.pageSize)
	f.sem.Release()
	if err != nil {
		return nil, 0, err
	}

	pages := pageCount(f.ceiling, f.pageSize)
	set, err := f.fetchRemaining(p, first, pages)
	if err != nil {
		return nil, 0, err
	}
	dropped := first.Paging.Total - len(set)
	if dropped < 0 {
		dropped = 0
	}
	return set, dropped, nil
}

// fetchRemaining merges page 1 with pages 2..pages fetched in parallel.
func (f *Fetcher) fetchRemaining(p Predicate, first *platform.SearchResult, pages int) (findings.Set, error) {
	set := findings.Set{}
	var mu sync.Mutex
	for _, finding := range first.Findings {
		set[finding.Key] = finding
	}
	if pages <= 1 {
		return set, nil
	}

	remaining := make([]int, 0, pages-1)
	for page := 2; page <= pages; page++ {
		remaining = append(remaining, page)
	}

	var errs []error
	shared.ForEveryWithBoundedGoroutines(cap(f.sem), remaining, func(i int, page int) {
		f.sem.Acquire()
		result, err := f.api.SearchPage(p, page, f.pageSize)
		f.sem.Release()

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			f.logger.Error("failed to fetch page", "page", page, "predicate", p.String(), "error", err)
			errs = append(errs, err)
			return
		}
		for _, finding := range result.Findings {
			set[finding.Key] = finding
		}
	})

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to fetch %d of %d pages: %w", len(errs), pages, errs[0])
	}
	return set, nil
}

func pageCount(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
