package search

import (
	"fmt"
	"time"

	"github.com/sonarsync/sonarsync/internal/platform"
)

// IssueAPI adapts a platform client's issue and project services to the
// engine's PageAPI and SplitAPI contracts.
type IssueAPI struct {
	Client *platform.Client
}

// SearchPage fetches one page of issues for the predicate.
func (a IssueAPI) SearchPage(p Predicate, page, pageSize int) (*platform.SearchResult, error) {
	return a.Client.Issues.Search(p.Params(), page, pageSize)
}

// ProjectKeys enumerates every project key on the platform.
func (a IssueAPI) ProjectKeys() ([]string, error) {
	return a.Client.Projects.ListKeys()
}

// InvalidateProjects drops the cached project enumeration after a partition
// search found a project gone from the server.
func (a IssueAPI) InvalidateProjects() {
	a.Client.Projects.InvalidateKeys()
}

// Facet runs the predicate with the named facet requested and a minimal page,
// returning the facet buckets.
func (a IssueAPI) Facet(p Predicate, name string) ([]platform.FacetValue, error) {
	params := p.Params()
	params["facets"] = name
	result, err := a.Client.Issues.Search(params, 1, 1)
	if err != nil {
		return nil, err
	}
	return result.Facets[name], nil
}

// CreatedBounds returns the oldest and newest creation dates in the
// predicate's result set, using two single-item sorted queries.
func (a IssueAPI) CreatedBounds(p Predicate) (time.Time, time.Time, error) {
	oldest, err := a.boundary(p, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	newest, err := a.boundary(p, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return oldest, newest, nil
}

func (a IssueAPI) boundary(p Predicate, ascending bool) (time.Time, error) {
	params := p.Params()
	params["s"] = "CREATION_DATE"
	params["asc"] = fmt.Sprintf("%t", ascending)
	result, err := a.Client.Issues.Search(params, 1, 1)
	if err != nil {
		return time.Time{}, err
	}
	if len(result.Findings) == 0 {
		return time.Time{}, fmt.Errorf("predicate %q has no findings to bound", p.String())
	}
	return result.Findings[0].CreationDate, nil
}

// HotspotAPI adapts a platform client's hotspot service to the engine's
// contracts. The hotspot endpoint scopes by projectKey instead of
// componentKeys and offers neither facets nor severity filters.
type HotspotAPI struct {
	Client *platform.Client
}

func hotspotParams(p Predicate) map[string]string {
	params := p.Params()
	if key, ok := params[FilterComponent]; ok {
		delete(params, FilterComponent)
		params["projectKey"] = key
	}
	return params
}

// SearchPage fetches one page of hotspots for the predicate.
func (a HotspotAPI) SearchPage(p Predicate, page, pageSize int) (*platform.SearchResult, error) {
	return a.Client.Hotspots.Search(hotspotParams(p), page, pageSize)
}

// ProjectKeys enumerates every project key on the platform.
func (a HotspotAPI) ProjectKeys() ([]string, error) {
	return a.Client.Projects.ListKeys()
}

// InvalidateProjects drops the cached project enumeration after a partition
// search found a project gone from the server.
func (a HotspotAPI) InvalidateProjects() {
	a.Client.Projects.InvalidateKeys()
}

// Facet is unsupported by the hotspot endpoint.
func (a HotspotAPI) Facet(p Predicate, name string) ([]platform.FacetValue, error) {
	return nil, fmt.Errorf("hotspot search has no %q facet", name)
}

// CreatedBounds estimates the oldest and newest creation dates in the
// predicate's hotspot result set from one page: the endpoint cannot sort by
// date, so the bounds are a sample and callers must not treat them as exact.
func (a HotspotAPI) CreatedBounds(p Predicate) (time.Time, time.Time, error) {
	params := hotspotParams(p)
	result, err := a.Client.Hotspots.Search(params, 1, 500)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(result.Findings) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("predicate %q has no hotspots to bound", p.String())
	}
	oldest, newest := result.Findings[0].CreationDate, result.Findings[0].CreationDate
	for _, f := range result.Findings[1:] {
		if f.CreationDate.Before(oldest) {
			oldest = f.CreationDate
		}
		if f.CreationDate.After(newest) {
			newest = f.CreationDate
		}
	}
	return oldest, newest, nil
}
