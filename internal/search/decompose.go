package search

import (
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/platform"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
)

// SplitAPI is the slice of the platform API the decomposer needs: project
// enumeration, facet aggregation and creation-date bounds of a predicate.
type SplitAPI interface {
	ProjectKeys() ([]string, error)
	Facet(p Predicate, name string) ([]platform.FacetValue, error)
	CreatedBounds(p Predicate) (oldest, newest time.Time, err error)
}

// Decomposer splits a predicate whose result set exceeds the server cap into
// disjoint sub-predicates whose union covers the parent exactly. Each split
// strictly narrows the predicate, so recursion over Split terminates.
type Decomposer struct {
	api    SplitAPI
	logger hclog.Logger
	caps   Capabilities
}

// Capabilities describes which split dimensions the underlying endpoint
// supports. The hotspot endpoint has a single type, no facet aggregation and
// no severity filter, so it only decomposes by project and date.
type Capabilities struct {
	Types      []string
	Facets     bool
	Severities bool
}

// IssueCapabilities returns the full dimension set of the issue search endpoint.
func IssueCapabilities() Capabilities {
	issueTypes := findings.IssueTypes()
	types := make([]string, len(issueTypes))
	for i, t := range issueTypes {
		types[i] = string(t)
	}
	return Capabilities{
		Types:      types,
		Facets:     true,
		Severities: true,
	}
}

// HotspotCapabilities returns the reduced dimension set of the hotspot search endpoint.
func HotspotCapabilities() Capabilities {
	return Capabilities{}
}

// NewDecomposer creates a decomposer over the given API slice.
func NewDecomposer(api SplitAPI, logger hclog.Logger, caps Capabilities) *Decomposer {
	return &Decomposer{api: api, logger: logger, caps: caps}
}

// InvalidateProjects tells a caching API to drop its project enumeration, so a
// later split refetches it. APIs without a cache ignore the call.
func (d *Decomposer) InvalidateProjects() {
	if cached, ok := d.api.(interface{ InvalidateProjects() }); ok {
		cached.InvalidateProjects()
	}
}

// Split produces the sub-predicates of an oversized predicate, applying the
// decomposition dimensions in fixed priority order: project, type, directory,
// file, severity, creation-date bisection. When every dimension is exhausted
// down to a single day that is still oversized, Split returns truncate=true:
// the caller accepts a bounded, reported loss instead of retrying forever.
func (d *Decomposer) Split(p Predicate) (subs []Predicate, truncate bool, err error) {
	switch {
	case !p.Has(FilterComponent):
		subs, err = d.splitByProject(p)
	case len(d.caps.Types) > 0 && !p.Has(FilterTypes):
		subs = d.splitByType(p)
	case d.caps.Facets && !p.Has(FilterDirectories):
		subs, err = d.splitByFacet(p, FilterDirectories)
	case d.caps.Facets && !p.Has(FilterFiles):
		subs, err = d.splitByFacet(p, FilterFiles)
	case d.caps.Severities && !p.Has(FilterSeverities):
		subs = d.splitBySeverity(p)
	default:
		return d.splitByDate(p)
	}
	return subs, false, err
}

func (d *Decomposer) splitByProject(p Predicate) ([]Predicate, error) {
	keys, err := d.api.ProjectKeys()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, scanerrors.NewDecompositionError("project", "server returned no projects")
	}
	d.logger.Debug("splitting oversized predicate by project", "projects", len(keys))
	subs := make([]Predicate, 0, len(keys))
	for _, key := range keys {
		subs = append(subs, p.With(FilterComponent, key))
	}
	return subs, nil
}

func (d *Decomposer) splitByType(p Predicate) []Predicate {
	d.logger.Debug("splitting oversized predicate by type", "types", len(d.caps.Types))
	subs := make([]Predicate, 0, len(d.caps.Types))
	for _, t := range d.caps.Types {
		subs = append(subs, p.With(FilterTypes, t))
	}
	return subs
}

func (d *Decomposer) splitByFacet(p Predicate, name string) ([]Predicate, error) {
	values, err := d.api.Facet(p, name)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, scanerrors.NewDecompositionError(name, "facet returned no values")
	}
	d.logger.Debug("splitting oversized predicate by facet", "facet", name, "values", len(values))
	subs := make([]Predicate, 0, len(values))
	for _, v := range values {
		subs = append(subs, p.With(name, v.Val))
	}
	return subs, nil
}

func (d *Decomposer) splitBySeverity(p Predicate) []Predicate {
	severities := findings.Severities()
	d.logger.Debug("splitting oversized predicate by severity")
	subs := make([]Predicate, 0, len(severities))
	for _, s := range severities {
		subs = append(subs, p.With(FilterSeverities, s))
	}
	return subs
}

// splitByDate bisects the predicate's creation-date window at day granularity.
// A bound the predicate does not pin is estimated by probing the result set,
// but the child on that side stays open: probed bounds may come from a sample
// (the hotspot endpoint cannot sort by date), so only the pivot is trusted and
// the two children partition the parent's full result set whatever the true
// extremes are. A one-day window that is still oversized cannot be narrowed
// further and is reported as a truncation.
func (d *Decomposer) splitByDate(p Predicate) ([]Predicate, bool, error) {
	start, hasStart := p.CreatedAfter()
	end, hasEnd := p.CreatedBefore()
	if !hasStart || !hasEnd {
		oldest, newest, err := d.api.CreatedBounds(p)
		if err != nil {
			return nil, false, err
		}
		if !hasStart {
			start = dayOf(oldest)
		}
		if !hasEnd {
			end = dayOf(newest)
		}
	}

	if !start.Before(end) {
		if start.After(end) {
			return nil, false, scanerrors.NewDecompositionError("createdAfter", "window start is after window end")
		}
		d.logger.Warn("single-day window still exceeds the result cap, accepting truncation",
			"day", start.Format(dayLayout), "predicate", p.String())
		return nil, true, nil
	}

	days := int(end.Sub(start).Hours() / 24)
	mid := start.AddDate(0, 0, days/2)
	// Both children must be proper subsets of [start, end] or recursion loops.
	if mid.Before(start) || !mid.Before(end) {
		return nil, false, scanerrors.NewDecompositionError("createdAfter", "date bisection produced a non-shrinking window")
	}

	d.logger.Debug("bisecting creation-date window",
		"start", start.Format(dayLayout), "mid", mid.Format(dayLayout), "end", end.Format(dayLayout))
	// Each child inherits only the bounds the parent already pinned, plus the
	// pivot: a probed extreme never closes a side.
	return []Predicate{
		p.With(FilterCreatedBefore, mid.Format(dayLayout)),
		p.With(FilterCreatedAfter, mid.AddDate(0, 0, 1).Format(dayLayout)),
	}, false, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
