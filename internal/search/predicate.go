package search

import (
	"sort"
	"strings"
	"time"
)

// Filter names understood by the search API.
const (
	FilterComponent     = "componentKeys"
	FilterBranch        = "branch"
	FilterPullRequest   = "pullRequest"
	FilterTypes         = "types"
	FilterSeverities    = "severities"
	FilterDirectories   = "directories"
	FilterFiles         = "files"
	FilterRules         = "rules"
	FilterCreatedAfter  = "createdAfter"
	FilterCreatedBefore = "createdBefore"
)

const dayLayout = "2006-01-02"

// Predicate is an immutable mapping of filter name to values. Refinement
// constructors return a copy with one dimension added or narrowed; the parent
// is never mutated, so predicates can be shared across goroutines freely.
type Predicate struct {
	filters map[string][]string
}

// NewPredicate creates an empty predicate.
func NewPredicate() Predicate {
	return Predicate{filters: map[string][]string{}}
}

func (p Predicate) clone() Predicate {
	filters := make(map[string][]string, len(p.filters)+1)
	for k, v := range p.filters {
		filters[k] = v
	}
	return Predicate{filters: filters}
}

// With returns a refinement of p with the given filter set to values.
func (p Predicate) With(name string, values ...string) Predicate {
	q := p.clone()
	q.filters[name] = values
	return q
}

// Has reports whether the filter is present.
func (p Predicate) Has(name string) bool {
	_, ok := p.filters[name]
	return ok
}

// Get returns the values of the filter, or nil.
func (p Predicate) Get(name string) []string {
	return p.filters[name]
}

// WithCreatedRange returns a refinement of p bounded to creation dates inside
// [start, end], at day granularity.
func (p Predicate) WithCreatedRange(start, end time.Time) Predicate {
	q := p.clone()
	q.filters[FilterCreatedAfter] = []string{start.Format(dayLayout)}
	q.filters[FilterCreatedBefore] = []string{end.Format(dayLayout)}
	return q
}

// CreatedAfter returns the lower creation-date bound of the predicate, if set.
func (p Predicate) CreatedAfter() (time.Time, bool) {
	return p.createdDay(FilterCreatedAfter)
}

// CreatedBefore returns the upper creation-date bound of the predicate, if set.
func (p Predicate) CreatedBefore() (time.Time, bool) {
	return p.createdDay(FilterCreatedBefore)
}

func (p Predicate) createdDay(name string) (time.Time, bool) {
	values := p.filters[name]
	if len(values) == 0 {
		return time.Time{}, false
	}
	day, err := time.Parse(dayLayout, values[0])
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// CreatedRange returns the creation-date window of the predicate. ok is false
// unless both bounds are set.
func (p Predicate) CreatedRange() (start, end time.Time, ok bool) {
	start, hasStart := p.CreatedAfter()
	end, hasEnd := p.CreatedBefore()
	if !hasStart || !hasEnd {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// Params encodes the predicate into wire parameters, multi-valued filters
// comma-joined, in deterministic key order.
func (p Predicate) Params() map[string]string {
	params := make(map[string]string, len(p.filters))
	for name, values := range p.filters {
		params[name] = strings.Join(values, ",")
	}
	return params
}

// String renders the predicate for logs, in deterministic key order.
func (p Predicate) String() string {
	names := make([]string, 0, len(p.filters))
	for name := range p.filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(p.filters[name], ","))
	}
	return b.String()
}
