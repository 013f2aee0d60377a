package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal classification of one target finding in a sync run.
type Outcome string

const (
	// OutcomeSynchronized means exactly one exact sibling existed and its
	// history was replayed.
	OutcomeSynchronized Outcome = "synchronized"
	// OutcomeAmbiguous means more than one exact sibling existed; nothing was applied.
	OutcomeAmbiguous Outcome = "ambiguous"
	// OutcomeApproximateOnly means only fuzzy siblings existed; they are
	// reported for manual review, never auto-applied.
	OutcomeApproximateOnly Outcome = "approximate-only"
	// OutcomeDisqualified means every sibling carried manual work older than
	// the target's own.
	OutcomeDisqualified Outcome = "disqualified"
	// OutcomeNoMatch means no sibling was found at all.
	OutcomeNoMatch Outcome = "no-match"
)

// Outcomes lists every terminal outcome in report order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeSynchronized,
		OutcomeAmbiguous,
		OutcomeApproximateOnly,
		OutcomeDisqualified,
		OutcomeNoMatch,
	}
}

// Detail is the per-finding row of a sync report.
type Detail struct {
	TargetKey  string   `json:"targetKey"`
	Rule       string   `json:"rule"`
	File       string   `json:"file"`
	Line       int      `json:"line,omitempty"`
	Outcome    Outcome  `json:"outcome"`
	SourceKeys []string `json:"sourceKeys,omitempty"`
	Applied    int      `json:"applied,omitempty"`
}

// Report is the outcome of one sync run. It is safe for concurrent Record calls.
type Report struct {
	mu sync.Mutex

	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	SourceURL string    `json:"sourceUrl"`
	TargetURL string    `json:"targetUrl"`
	DryRun    bool      `json:"dryRun"`

	Counts         map[Outcome]int `json:"counts"`
	AppliedActions int             `json:"appliedActions"`
	// SearchTruncated counts findings the exhaustive search had to drop on
	// unsplittable single-day partitions.
	SearchTruncated int `json:"searchTruncated,omitempty"`
	// HistoryFailures counts findings whose changelog fetch failed; they were
	// skipped, not fatal.
	HistoryFailures int `json:"historyFailures,omitempty"`

	Details []Detail `json:"details"`
}

// New creates an empty report for a run between the two platforms.
func New(sourceURL, targetURL string, dryRun bool) *Report {
	counts := make(map[Outcome]int, len(Outcomes()))
	for _, o := range Outcomes() {
		counts[o] = 0
	}
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		SourceURL: sourceURL,
		TargetURL: targetURL,
		DryRun:    dryRun,
		Counts:    counts,
	}
}

// Record adds one per-finding row and updates the counters.
func (r *Report) Record(d Detail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Counts[d.Outcome]++
	r.AppliedActions += d.Applied
	r.Details = append(r.Details, d)
}

// AddHistoryFailure counts one finding whose history could not be loaded.
func (r *Report) AddHistoryFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HistoryFailures++
}

// Unresolved returns the number of findings that matched something but could
// not be auto-applied. It is the process exit code of a sync run.
func (r *Report) Unresolved() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[OutcomeAmbiguous] + r.Counts[OutcomeApproximateOnly] + r.Counts[OutcomeDisqualified]
}

// WriteJSON renders the report as indented JSON with details in a stable order.
func (r *Report) WriteJSON(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.Slice(r.Details, func(i, j int) bool { return r.Details[i].TargetKey < r.Details[j].TargetKey })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteSummary prints the per-category counts in report order.
func (r *Report) WriteSummary(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(w, "sync run %s (%s -> %s)\n", r.RunID, r.SourceURL, r.TargetURL)
	if r.DryRun {
		fmt.Fprintln(w, "mode: dry-run, no action was applied")
	}
	for _, o := range Outcomes() {
		fmt.Fprintf(w, "  %-17s %d\n", string(o)+":", r.Counts[o])
	}
	fmt.Fprintf(w, "  applied actions:  %d\n", r.AppliedActions)
	if r.SearchTruncated > 0 {
		fmt.Fprintf(w, "  search truncated: %d findings dropped\n", r.SearchTruncated)
	}
	if r.HistoryFailures > 0 {
		fmt.Fprintf(w, "  history failures: %d\n", r.HistoryFailures)
	}
}
