package findings

import (
	"strings"
	"time"
)

// Kind classifies one changelog entry.
type Kind string

const (
	KindAssign        Kind = "ASSIGN"
	KindReopen        Kind = "REOPEN"
	KindConfirm       Kind = "CONFIRM"
	KindUnconfirm     Kind = "UNCONFIRM"
	KindSeverity      Kind = "SEVERITY"
	KindType          Kind = "TYPE"
	KindFalsePositive Kind = "FALSE_POSITIVE"
	KindWontFix       Kind = "WONT_FIX"
	KindAccept        Kind = "ACCEPT"
	KindFixed         Kind = "FIXED"
	KindClosed        Kind = "CLOSED"
	KindTags          Kind = "TAGS"
	// KindInternal marks system-generated entries (effort changes, branch moves,
	// analysis-driven transitions). They are never replayed.
	KindInternal Kind = "INTERNAL"
	KindUnknown  Kind = "UNKNOWN"
)

// ChangelogEntry is one timestamped manual event on a finding. Seq is a
// per-finding sequence number assigned at load time, used to break timestamp ties.
type ChangelogEntry struct {
	Date  time.Time
	Seq   int
	Kind  Kind
	Value string
	User  string
}

// Comment is one markdown comment on a finding. Comments are a separate time
// series from changelog entries.
type Comment struct {
	Key      string
	Date     time.Time
	Markdown string
	Login    string
}

// Diff is one field change inside a raw changelog event, as reported by the API.
type Diff struct {
	Key      string
	OldValue string
	NewValue string
}

// internalDiffKeys lists diff keys produced by the scanner or the server itself
// rather than by an operator.
var internalDiffKeys = map[string]bool{
	"effort":            true,
	"technicalDebt":     true,
	"from_branch":       true,
	"from_short_branch": true,
	"line":              true,
	"file":              true,
	"issueStatus":       true,
}

// ClassifyDiffs maps one raw changelog event's diffs onto an entry kind and payload.
// Status transitions take precedence over attribute changes within the same event,
// matching how the server groups a resolution with its status diff.
func ClassifyDiffs(diffs []Diff) (Kind, string) {
	var kind Kind = KindUnknown
	var value string

	for _, d := range diffs {
		switch d.Key {
		case "resolution":
			switch d.NewValue {
			case "FALSE-POSITIVE":
				return KindFalsePositive, ""
			case "WONTFIX":
				return KindWontFix, ""
			case "ACCEPTED":
				return KindAccept, ""
			case "FIXED":
				return KindFixed, ""
			case "":
				// A cleared resolution rides with a status diff handled below.
			}
		case "status":
			switch d.NewValue {
			case "REOPENED", "OPEN", "TO_REVIEW":
				kind, value = KindReopen, ""
			case "CONFIRMED":
				kind, value = KindConfirm, ""
			case "UNCONFIRMED":
				kind, value = KindUnconfirm, ""
			case "CLOSED":
				kind, value = KindClosed, ""
			}
		case "severity":
			if kind == KindUnknown {
				kind, value = KindSeverity, d.NewValue
			}
		case "impactSeverity":
			// MQR servers log manual severity changes as impact diffs.
			if kind == KindUnknown {
				kind, value = KindSeverity, legacyFromImpactDiff(d.NewValue)
			}
		case "type":
			if kind == KindUnknown {
				kind, value = KindType, d.NewValue
			}
		case "assignee":
			if kind == KindUnknown {
				kind, value = KindAssign, d.NewValue
			}
		case "tags":
			if kind == KindUnknown {
				kind, value = KindTags, d.NewValue
			}
		default:
			if internalDiffKeys[d.Key] && kind == KindUnknown {
				kind = KindInternal
			}
		}
	}

	return kind, value
}

// legacyFromImpactDiff converts an impactSeverity diff value into a legacy
// severity. The value may carry the software quality as a prefix
// ("MAINTAINABILITY:HIGH"); only the severity part is replayed, since the
// quality is fixed by the target rule.
func legacyFromImpactDiff(value string) string {
	if i := strings.LastIndex(value, ":"); i >= 0 {
		value = value[i+1:]
	}
	return LegacySeverity(value)
}
