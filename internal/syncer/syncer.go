package syncer

import (
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/match"
	"github.com/sonarsync/sonarsync/internal/replicate"
	"github.com/sonarsync/sonarsync/internal/report"
)

// Options tunes one sync run.
type Options struct {
	MatchOptions match.Options
	Policy       replicate.Policy
	DryRun       bool
	// Workers caps concurrent history fetches.
	Workers int
	// HistoryTimeout bounds one changelog/comments fetch.
	HistoryTimeout time.Duration
}

// Syncer is the top-level per-finding loop: it matches every target finding
// against the source set and replays history onto unambiguous exact siblings.
// Only 100%-confidence matches are ever auto-applied; everything else lands in
// the report for manual review.
type Syncer struct {
	sourceLoader HistoryLoader
	targetLoader HistoryLoader
	replicator   *replicate.Replicator
	logger       hclog.Logger
	opts         Options
}

// New creates a syncer replaying source history through the given replicator.
func New(sourceLoader, targetLoader HistoryLoader, replicator *replicate.Replicator, logger hclog.Logger, opts Options) *Syncer {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	return &Syncer{
		sourceLoader: sourceLoader,
		targetLoader: targetLoader,
		replicator:   replicator,
		logger:       logger,
		opts:         opts,
	}
}

// Run matches every target finding against the source set and fills in the
// report. Individual finding failures never abort the run; the report always
// completes with per-category counts.
func (s *Syncer) Run(targets, sources findings.Set, rep *report.Report) {
	s.logger.Info("loading finding histories", "sources", len(sources), "targets", len(targets))
	failures := loadHistories(sources, s.sourceLoader, s.opts.Workers, s.opts.HistoryTimeout, s.logger)
	failures += loadHistories(targets, s.targetLoader, s.opts.Workers, s.opts.HistoryTimeout, s.logger)
	for i := 0; i < failures; i++ {
		rep.AddHistoryFailure()
	}

	// Only sources carrying manual history are worth matching: a clean source
	// has nothing to replay.
	candidates := make([]*findings.Finding, 0, len(sources))
	for _, f := range sources {
		if f.HasManualChanges() {
			candidates = append(candidates, f)
		}
	}
	s.logger.Info("matching findings", "candidates", len(candidates), "targets", len(targets))

	for _, target := range targets {
		rep.Record(s.syncOne(target, candidates))
	}
}

// syncOne classifies one target finding and, for a single exact sibling,
// replays its history. The terminal outcomes are synchronized, ambiguous,
// approximate-only, disqualified and no-match.
func (s *Syncer) syncOne(target *findings.Finding, candidates []*findings.Finding) report.Detail {
	detail := report.Detail{
		TargetKey: target.Key,
		Rule:      target.Rule,
		File:      target.File(),
		Line:      target.Line,
	}

	c := match.Classify(target, candidates, s.opts.MatchOptions)
	switch {
	case len(c.Exact) == 1:
		source := c.Exact[0]
		detail.SourceKeys = []string{source.Key}
		if s.opts.DryRun {
			detail.Outcome = report.OutcomeSynchronized
			s.logger.Info("would synchronize finding", "target", target.Key, "source", source.Key)
			return detail
		}
		detail.Applied = s.replicator.Apply(target, source, s.opts.Policy)
		detail.Outcome = report.OutcomeSynchronized
		s.logger.Info("synchronized finding",
			"target", target.Key, "source", source.Key, "applied", detail.Applied)

	case len(c.Exact) > 1:
		detail.Outcome = report.OutcomeAmbiguous
		detail.SourceKeys = keysOf(c.Exact)
		s.logger.Warn("ambiguous match, not auto-applying",
			"target", target.Key, "siblings", len(c.Exact))

	case len(c.Approximate) > 0:
		detail.Outcome = report.OutcomeApproximateOnly
		detail.SourceKeys = keysOf(c.Approximate)
		s.logger.Info("approximate siblings only, reported for manual review",
			"target", target.Key, "siblings", len(c.Approximate))

	case len(c.Disqualified) > 0:
		detail.Outcome = report.OutcomeDisqualified
		detail.SourceKeys = keysOf(c.Disqualified)
		s.logger.Info("siblings disqualified by newer target history",
			"target", target.Key, "siblings", len(c.Disqualified))

	default:
		detail.Outcome = report.OutcomeNoMatch
	}

	return detail
}

func keysOf(fs []*findings.Finding) []string {
	keys := make([]string, 0, len(fs))
	for _, f := range fs {
		keys = append(keys, f.Key)
	}
	return keys
}
