package replicate

import (
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/sonarsync/sonarsync/internal/findings"
)

// recorder captures every action call in order; failKinds makes selected calls fail.
type recorder struct {
	calls         []string
	severityTypes []findings.Type
	failCalls     map[string]bool
}

func (r *recorder) record(call string) error {
	r.calls = append(r.calls, call)
	if r.failCalls[call] {
		return fmt.Errorf("server rejected %s", call)
	}
	return nil
}

func (r *recorder) Assign(key, login string) error { return r.record("assign:" + login) }
func (r *recorder) Reopen(key string) error        { return r.record("reopen") }
func (r *recorder) Confirm(key string) error       { return r.record("confirm") }
func (r *recorder) Unconfirm(key string) error     { return r.record("unconfirm") }
func (r *recorder) SetSeverity(key, severity string, issueType findings.Type) error {
	r.severityTypes = append(r.severityTypes, issueType)
	return r.record("severity:" + severity)
}
func (r *recorder) SetType(key, issueType string) error { return r.record("type:" + issueType) }
func (r *recorder) Resolve(key string, resolution findings.Kind) error {
	return r.record("resolve:" + string(resolution))
}
func (r *recorder) SetTags(key string, tags []string) error {
	return r.record(fmt.Sprintf("tags:%v", tags))
}
func (r *recorder) AddComment(key, text string) error { return r.record("comment:" + text) }

func day(d int) time.Time {
	return time.Date(2024, 2, d, 12, 0, 0, 0, time.UTC)
}

func entry(d int, kind findings.Kind, value string) findings.ChangelogEntry {
	return findings.ChangelogEntry{Date: day(d), Kind: kind, Value: value}
}

func newTestReplicator(rec *recorder) *Replicator {
	return NewReplicator(rec, hclog.NewNullLogger())
}

func TestApplyReplaysChronologically(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(1, findings.KindConfirm, ""),
		entry(2, findings.KindSeverity, "BLOCKER"),
		entry(3, findings.KindFalsePositive, ""),
	}}
	target := &findings.Finding{Key: "tgt"}

	applied := r.Apply(target, source, DefaultPolicy())

	assert.Equal(t, 3, applied)
	assert.Equal(t, []string{"confirm", "severity:BLOCKER", "resolve:FALSE_POSITIVE"}, rec.calls)
}

func TestApplySeverityCarriesTargetType(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(1, findings.KindSeverity, "CRITICAL"),
	}}
	target := &findings.Finding{Key: "tgt", Type: findings.TypeVulnerability}

	applied := r.Apply(target, source, DefaultPolicy())

	assert.Equal(t, 1, applied)
	assert.Equal(t, []string{"severity:CRITICAL"}, rec.calls)
	assert.Equal(t, []findings.Type{findings.TypeVulnerability}, rec.severityTypes)
}

func TestApplySkipsEntriesNotNewerThanTargetHistory(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(1, findings.KindConfirm, ""),
		entry(5, findings.KindWontFix, ""),
	}}
	target := &findings.Finding{Key: "tgt", Changelog: []findings.ChangelogEntry{
		entry(3, findings.KindConfirm, ""),
	}}

	applied := r.Apply(target, source, DefaultPolicy())

	assert.Equal(t, 1, applied)
	assert.Equal(t, []string{"resolve:WONT_FIX"}, rec.calls)
}

func TestApplyIsIdempotent(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(2, findings.KindAccept, ""),
	}}
	// After a previous sync the target carries its own entry at the same moment.
	target := &findings.Finding{Key: "tgt", Changelog: []findings.ChangelogEntry{
		entry(2, findings.KindAccept, ""),
	}}

	applied := r.Apply(target, source, DefaultPolicy())

	assert.Zero(t, applied)
	assert.Empty(t, rec.calls)
}

func TestApplyNeverReplaysClosingEntries(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(1, findings.KindFixed, ""),
		entry(2, findings.KindClosed, ""),
		entry(3, findings.KindInternal, ""),
		entry(4, findings.KindReopen, ""),
	}}
	target := &findings.Finding{Key: "tgt"}

	applied := r.Apply(target, source, DefaultPolicy())

	assert.Equal(t, 1, applied)
	assert.Equal(t, []string{"reopen"}, rec.calls)
}

func TestApplyUnknownKindIsSkippedNotCounted(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(1, findings.KindUnknown, ""),
		entry(2, findings.KindConfirm, ""),
	}}
	target := &findings.Finding{Key: "tgt"}

	assert.Equal(t, 1, r.Apply(target, source, DefaultPolicy()))
}

func TestApplyContinuesPastFailedAction(t *testing.T) {
	rec := &recorder{failCalls: map[string]bool{"severity:BLOCKER": true}}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(1, findings.KindSeverity, "BLOCKER"),
		entry(2, findings.KindConfirm, ""),
	}}
	target := &findings.Finding{Key: "tgt"}

	applied := r.Apply(target, source, DefaultPolicy())

	assert.Equal(t, 1, applied, "failed action must not abort the rest")
	assert.Equal(t, []string{"severity:BLOCKER", "confirm"}, rec.calls)
}

func TestPolicyTogglesCategories(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{
		Key: "src",
		Changelog: []findings.ChangelogEntry{
			entry(1, findings.KindAssign, "alice"),
			entry(2, findings.KindTags, "security, reviewed"),
			entry(3, findings.KindConfirm, ""),
		},
		Comments: []findings.Comment{{Date: day(4), Markdown: "triage note"}},
	}
	target := &findings.Finding{Key: "tgt"}

	applied := r.Apply(target, source, Policy{Assignments: false, Comments: false, Tags: false})

	assert.Equal(t, 1, applied)
	assert.Equal(t, []string{"confirm"}, rec.calls)
}

func TestApplyTagsAreSplitAndTrimmed(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{Key: "src", Changelog: []findings.ChangelogEntry{
		entry(1, findings.KindTags, "security, reviewed , "),
	}}
	target := &findings.Finding{Key: "tgt"}

	r.Apply(target, source, DefaultPolicy())

	assert.Equal(t, []string{"tags:[security reviewed]"}, rec.calls)
}

func TestCommentsUseTheirOwnCutoff(t *testing.T) {
	rec := &recorder{}
	r := newTestReplicator(rec)

	source := &findings.Finding{
		Key: "src",
		Comments: []findings.Comment{
			{Date: day(1), Markdown: "old note"},
			{Date: day(6), Markdown: "new note"},
		},
	}
	// The target's changelog is newer than both comments, but comments are a
	// separate time series: only the target's own comments set the cutoff.
	target := &findings.Finding{
		Key:       "tgt",
		Changelog: []findings.ChangelogEntry{entry(9, findings.KindConfirm, "")},
		Comments:  []findings.Comment{{Date: day(3), Markdown: "earlier"}},
	}

	applied := r.Apply(target, source, DefaultPolicy())

	assert.Equal(t, 1, applied)
	assert.Equal(t, []string{"comment:new note"}, rec.calls)
}
