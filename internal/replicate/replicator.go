package replicate

import (
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
)

// Actions is the target-side surface the replicator drives. Implementations
// translate each call into the platform write API; tests substitute a recorder.
type Actions interface {
	Assign(key, login string) error
	Reopen(key string) error
	Confirm(key string) error
	Unconfirm(key string) error
	SetSeverity(key, severity string, issueType findings.Type) error
	SetType(key, issueType string) error
	Resolve(key string, resolution findings.Kind) error
	SetTags(key string, tags []string) error
	AddComment(key, text string) error
}

// Policy selects which event categories are replayed.
type Policy struct {
	Assignments bool
	Comments    bool
	Tags        bool
}

// DefaultPolicy replays everything replayable.
func DefaultPolicy() Policy {
	return Policy{Assignments: true, Comments: true, Tags: true}
}

// Replicator replays the manual history of a source finding onto its sibling
// in the target set.
type Replicator struct {
	actions Actions
	logger  hclog.Logger
}

// NewReplicator creates a replicator over the given action surface.
func NewReplicator(actions Actions, logger hclog.Logger) *Replicator {
	return &Replicator{actions: actions, logger: logger}
}

// Apply replays the source finding's changelog onto the target in chronological
// order, then merges the comment stream under the same rule. Only entries
// strictly newer than the target's own last manual change are considered, which
// makes a second run over the same pair a no-op. A failed action is logged and
// the remaining actions are still attempted.
func (r *Replicator) Apply(target, source *findings.Finding, policy Policy) int {
	applied := r.applyChangelog(target, source, policy)
	if policy.Comments {
		applied += r.applyComments(target, source)
	}
	return applied
}

func (r *Replicator) applyChangelog(target, source *findings.Finding, policy Policy) int {
	lastApplied := target.LastManualChange()
	applied := 0

	for _, entry := range source.Changelog {
		if !entry.Date.After(lastApplied) {
			continue
		}

		var err error
		counted := true
		switch entry.Kind {
		case findings.KindAssign:
			if !policy.Assignments {
				continue
			}
			err = r.actions.Assign(target.Key, entry.Value)
		case findings.KindReopen:
			err = r.actions.Reopen(target.Key)
		case findings.KindConfirm:
			err = r.actions.Confirm(target.Key)
		case findings.KindUnconfirm:
			err = r.actions.Unconfirm(target.Key)
		case findings.KindSeverity:
			// The target's own type decides which software quality an MQR
			// severity write lands on.
			err = r.actions.SetSeverity(target.Key, entry.Value, target.Type)
		case findings.KindType:
			err = r.actions.SetType(target.Key, entry.Value)
		case findings.KindFalsePositive, findings.KindWontFix, findings.KindAccept:
			err = r.actions.Resolve(target.Key, entry.Kind)
		case findings.KindTags:
			if !policy.Tags {
				continue
			}
			err = r.actions.SetTags(target.Key, splitTags(entry.Value))
		case findings.KindFixed, findings.KindClosed:
			// Closing must come from a real analysis, never from a sync.
			r.logger.Debug("skipping non-replayable entry", "finding", target.Key, "kind", entry.Kind)
			continue
		case findings.KindInternal:
			continue
		default:
			r.logger.Error("unrecognized changelog entry kind, skipping",
				"finding", target.Key, "kind", entry.Kind, "date", entry.Date)
			continue
		}

		if err != nil {
			r.logger.Error("failed to replay changelog entry, continuing",
				"finding", target.Key, "kind", entry.Kind, "error", err)
			counted = false
		}
		if counted {
			applied++
		}
	}

	return applied
}

// applyComments merges the source comment stream onto the target. Comments are
// a separate time series from changelog entries, so the newer-than cutoff is
// the target's own latest comment, not its last changelog entry.
func (r *Replicator) applyComments(target, source *findings.Finding) int {
	var lastComment time.Time
	for _, c := range target.Comments {
		if c.Date.After(lastComment) {
			lastComment = c.Date
		}
	}

	applied := 0
	for _, c := range source.Comments {
		if !c.Date.After(lastComment) {
			continue
		}
		if err := r.actions.AddComment(target.Key, c.Markdown); err != nil {
			r.logger.Error("failed to replay comment, continuing",
				"finding", target.Key, "error", err)
			continue
		}
		applied++
	}
	return applied
}

func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
