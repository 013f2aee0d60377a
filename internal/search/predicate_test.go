package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPredicateRefinementDoesNotMutateParent(t *testing.T) {
	parent := NewPredicate().With(FilterComponent, "proj-a")
	child := parent.With(FilterTypes, "BUG")

	assert.False(t, parent.Has(FilterTypes))
	assert.True(t, child.Has(FilterTypes))
	assert.Equal(t, []string{"proj-a"}, child.Get(FilterComponent))
}

func TestPredicateWithReplacesValues(t *testing.T) {
	p := NewPredicate().With(FilterSeverities, "MAJOR", "CRITICAL")
	q := p.With(FilterSeverities, "BLOCKER")

	assert.Equal(t, []string{"MAJOR", "CRITICAL"}, p.Get(FilterSeverities))
	assert.Equal(t, []string{"BLOCKER"}, q.Get(FilterSeverities))
}

func TestPredicateParamsCommaJoined(t *testing.T) {
	p := NewPredicate().
		With(FilterComponent, "proj-a").
		With(FilterTypes, "BUG", "VULNERABILITY")

	params := p.Params()
	assert.Equal(t, "proj-a", params[FilterComponent])
	assert.Equal(t, "BUG,VULNERABILITY", params[FilterTypes])
}

func TestPredicateCreatedRange(t *testing.T) {
	start := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC)

	p := NewPredicate()
	_, _, ok := p.CreatedRange()
	assert.False(t, ok)

	q := p.WithCreatedRange(start, end)
	gotStart, gotEnd, ok := q.CreatedRange()
	assert.True(t, ok)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, end, gotEnd)

	params := q.Params()
	assert.Equal(t, "2023-01-10", params[FilterCreatedAfter])
	assert.Equal(t, "2023-06-20", params[FilterCreatedBefore])
}

func TestPredicateStringIsDeterministic(t *testing.T) {
	p := NewPredicate().
		With(FilterTypes, "BUG").
		With(FilterComponent, "proj-a").
		With(FilterSeverities, "MAJOR")

	expected := "componentKeys=proj-a severities=MAJOR types=BUG"
	for i := 0; i < 10; i++ {
		assert.Equal(t, expected, p.String())
	}
}
