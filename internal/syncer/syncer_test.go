package syncer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/replicate"
	"github.com/sonarsync/sonarsync/internal/report"
)

// stubLoader hands out pre-recorded histories keyed by finding key.
type stubLoader struct {
	mu        sync.Mutex
	histories map[string][]findings.ChangelogEntry
	comments  map[string][]findings.Comment
	failKeys  map[string]bool
}

func (l *stubLoader) History(f *findings.Finding) ([]findings.ChangelogEntry, []findings.Comment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failKeys[f.Key] {
		return nil, nil, fmt.Errorf("history unavailable for %s", f.Key)
	}
	return l.histories[f.Key], l.comments[f.Key], nil
}

// countingActions counts applied actions without talking to any server.
type countingActions struct {
	mu    sync.Mutex
	calls int
}

func (a *countingActions) bump() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return nil
}

func (a *countingActions) Assign(key, login string) error { return a.bump() }
func (a *countingActions) Reopen(key string) error        { return a.bump() }
func (a *countingActions) Confirm(key string) error       { return a.bump() }
func (a *countingActions) Unconfirm(key string) error     { return a.bump() }
func (a *countingActions) SetSeverity(key, severity string, issueType findings.Type) error {
	return a.bump()
}
func (a *countingActions) SetType(key, issueType string) error       { return a.bump() }
func (a *countingActions) Resolve(key string, k findings.Kind) error { return a.bump() }
func (a *countingActions) SetTags(key string, tags []string) error   { return a.bump() }
func (a *countingActions) AddComment(key, text string) error         { return a.bump() }

func matchedPair(sourceKey, targetKey string) (*findings.Finding, *findings.Finding) {
	template := findings.Finding{
		Rule:      "go:S1763",
		Hash:      "abc123",
		Message:   "Remove this unreachable code.",
		Component: "proj:pkg/server/handler.go",
		Line:      12,
		Severity:  findings.SeverityMajor,
		Type:      findings.TypeBug,
	}
	source, target := template, template
	source.Key = sourceKey
	target.Key = targetKey
	return &source, &target
}

func newTestSyncer(sourceLoader, targetLoader HistoryLoader, actions replicate.Actions, opts Options) *Syncer {
	logger := hclog.NewNullLogger()
	return New(sourceLoader, targetLoader, replicate.NewReplicator(actions, logger), logger, opts)
}

func confirmAt(d time.Time) []findings.ChangelogEntry {
	return []findings.ChangelogEntry{{Date: d, Kind: findings.KindConfirm}}
}

func TestRunSynchronizesSingleExactSibling(t *testing.T) {
	source, target := matchedPair("src-1", "tgt-1")
	changed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	sourceLoader := &stubLoader{histories: map[string][]findings.ChangelogEntry{"src-1": confirmAt(changed)}}
	targetLoader := &stubLoader{}
	actions := &countingActions{}
	s := newTestSyncer(sourceLoader, targetLoader, actions, Options{})

	rep := report.New("https://src", "https://tgt", false)
	s.Run(findings.Set{target.Key: target}, findings.Set{source.Key: source}, rep)

	assert.Equal(t, 1, rep.Counts[report.OutcomeSynchronized])
	assert.Equal(t, 1, actions.calls)
	assert.Equal(t, 1, rep.AppliedActions)
	assert.Zero(t, rep.Unresolved())
}

func TestRunDryRunAppliesNothing(t *testing.T) {
	source, target := matchedPair("src-1", "tgt-1")
	changed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	sourceLoader := &stubLoader{histories: map[string][]findings.ChangelogEntry{"src-1": confirmAt(changed)}}
	actions := &countingActions{}
	s := newTestSyncer(sourceLoader, &stubLoader{}, actions, Options{DryRun: true})

	rep := report.New("https://src", "https://tgt", true)
	s.Run(findings.Set{target.Key: target}, findings.Set{source.Key: source}, rep)

	assert.Equal(t, 1, rep.Counts[report.OutcomeSynchronized])
	assert.Zero(t, actions.calls)
}

func TestRunSkipsSourcesWithoutHistory(t *testing.T) {
	source, target := matchedPair("src-1", "tgt-1")

	// No history recorded for the source: nothing worth replaying.
	actions := &countingActions{}
	s := newTestSyncer(&stubLoader{}, &stubLoader{}, actions, Options{})

	rep := report.New("https://src", "https://tgt", false)
	s.Run(findings.Set{target.Key: target}, findings.Set{source.Key: source}, rep)

	assert.Equal(t, 1, rep.Counts[report.OutcomeNoMatch])
	assert.Zero(t, actions.calls)
}

func TestRunAmbiguousSiblingsAreNotApplied(t *testing.T) {
	source1, target := matchedPair("src-1", "tgt-1")
	source2, _ := matchedPair("src-2", "tgt-1")
	changed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	sourceLoader := &stubLoader{histories: map[string][]findings.ChangelogEntry{
		"src-1": confirmAt(changed),
		"src-2": confirmAt(changed),
	}}
	actions := &countingActions{}
	s := newTestSyncer(sourceLoader, &stubLoader{}, actions, Options{})

	rep := report.New("https://src", "https://tgt", false)
	s.Run(
		findings.Set{target.Key: target},
		findings.Set{source1.Key: source1, source2.Key: source2},
		rep,
	)

	assert.Equal(t, 1, rep.Counts[report.OutcomeAmbiguous])
	assert.Zero(t, actions.calls)
	assert.Equal(t, 1, rep.Unresolved())
}

func TestRunDisqualifiedWhenTargetHistoryIsNewer(t *testing.T) {
	source, target := matchedPair("src-1", "tgt-1")
	older := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	sourceLoader := &stubLoader{histories: map[string][]findings.ChangelogEntry{"src-1": confirmAt(older)}}
	targetLoader := &stubLoader{histories: map[string][]findings.ChangelogEntry{"tgt-1": confirmAt(newer)}}
	actions := &countingActions{}
	s := newTestSyncer(sourceLoader, targetLoader, actions, Options{})

	rep := report.New("https://src", "https://tgt", false)
	s.Run(findings.Set{target.Key: target}, findings.Set{source.Key: source}, rep)

	assert.Equal(t, 1, rep.Counts[report.OutcomeDisqualified])
	assert.Zero(t, actions.calls)
	assert.Equal(t, 1, rep.Unresolved())
}

func TestRunApproximateOnlyIsReportedNotApplied(t *testing.T) {
	source, target := matchedPair("src-1", "tgt-1")
	// A diverging hash breaks exact identity; everything else still lines up,
	// which lands exactly on the full approximate score.
	source.Hash = "different"
	changed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	sourceLoader := &stubLoader{histories: map[string][]findings.ChangelogEntry{"src-1": confirmAt(changed)}}
	actions := &countingActions{}
	s := newTestSyncer(sourceLoader, &stubLoader{}, actions, Options{})

	rep := report.New("https://src", "https://tgt", false)
	s.Run(findings.Set{target.Key: target}, findings.Set{source.Key: source}, rep)

	assert.Equal(t, 1, rep.Counts[report.OutcomeApproximateOnly])
	assert.Zero(t, actions.calls)
}

func TestRunCountsHistoryFailuresAndContinues(t *testing.T) {
	source, target := matchedPair("src-1", "tgt-1")
	other, otherTarget := matchedPair("src-2", "tgt-2")
	other.Rule, otherTarget.Rule = "go:S1000", "go:S1000"
	other.Hash, otherTarget.Hash = "ffff", "ffff"
	changed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	sourceLoader := &stubLoader{
		histories: map[string][]findings.ChangelogEntry{"src-2": confirmAt(changed)},
		failKeys:  map[string]bool{"src-1": true},
	}
	actions := &countingActions{}
	s := newTestSyncer(sourceLoader, &stubLoader{}, actions, Options{})

	rep := report.New("https://src", "https://tgt", false)
	s.Run(
		findings.Set{target.Key: target, otherTarget.Key: otherTarget},
		findings.Set{source.Key: source, other.Key: other},
		rep,
	)

	assert.Equal(t, 1, rep.HistoryFailures)
	require.Equal(t, 1, rep.Counts[report.OutcomeSynchronized], "other pair must still sync")
	assert.Equal(t, 1, rep.Counts[report.OutcomeNoMatch])
}
