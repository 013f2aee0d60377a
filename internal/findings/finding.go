package findings

import (
	"path"
	"time"
)

// Type is the concrete kind of a finding in the legacy taxonomy.
type Type string

const (
	TypeBug           Type = "BUG"
	TypeVulnerability Type = "VULNERABILITY"
	TypeCodeSmell     Type = "CODE_SMELL"
	TypeHotspot       Type = "SECURITY_HOTSPOT"
)

// IssueTypes lists the issue types, in the order used for query decomposition.
// Hotspots live behind a separate endpoint with a single implicit type.
func IssueTypes() []Type {
	return []Type{TypeBug, TypeVulnerability, TypeCodeSmell}
}

// Finding is an issue or hotspot snapshot fetched from a platform. Findings are
// read-only: mutations go through the API and the local snapshot is refreshed
// by the caller after a successful write.
type Finding struct {
	Key        string `json:"key"`
	Rule       string `json:"rule"`
	Hash       string `json:"hash,omitempty"`
	Message    string `json:"message"`
	Component  string `json:"component"`
	Project    string `json:"project"`
	Branch     string `json:"branch,omitempty"`
	Line       int    `json:"line,omitempty"`
	TextRange  *Range `json:"textRange,omitempty"`
	Severity   string `json:"severity,omitempty"`
	Type       Type   `json:"type,omitempty"`
	Status     string `json:"status,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Author     string `json:"author,omitempty"`

	// Impacts maps software quality to impact severity in MQR mode.
	Impacts map[string]string `json:"impacts,omitempty"`

	Tags         []string  `json:"tags,omitempty"`
	CreationDate time.Time `json:"creationDate"`
	UpdateDate   time.Time `json:"updateDate,omitempty"`

	Changelog []ChangelogEntry `json:"-"`
	Comments  []Comment        `json:"-"`
}

// Range is the precise text location of a finding inside its file.
type Range struct {
	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine"`
	StartOffset int `json:"startOffset"`
	EndOffset   int `json:"endOffset"`
}

// File returns the file path of the finding inside its project, stripped of the
// project-key prefix the server embeds in component identifiers.
func (f *Finding) File() string {
	for i := 0; i < len(f.Component); i++ {
		if f.Component[i] == ':' {
			return f.Component[i+1:]
		}
	}
	return f.Component
}

// Directory returns the directory part of the finding's file path.
func (f *Finding) Directory() string {
	return path.Dir(f.File())
}

// StartColumn returns the start offset of the finding's text range, or -1 when
// the range is unknown.
func (f *Finding) StartColumn() int {
	if f.TextRange == nil {
		return -1
	}
	return f.TextRange.StartOffset
}

// IsHotspot reports whether the finding is a security hotspot.
func (f *Finding) IsHotspot() bool {
	return f.Type == TypeHotspot
}

// LastManualChange returns the timestamp of the most recent operator-driven
// changelog entry, or the zero time when the finding has none.
func (f *Finding) LastManualChange() time.Time {
	var last time.Time
	for _, e := range f.Changelog {
		if e.Kind == KindInternal {
			continue
		}
		if e.Date.After(last) {
			last = e.Date
		}
	}
	return last
}

// HasManualChanges reports whether the finding carries any operator-driven history
// (changelog entries or comments).
func (f *Finding) HasManualChanges() bool {
	if len(f.Comments) > 0 {
		return true
	}
	return !f.LastManualChange().IsZero()
}

// Set is a finding map keyed by finding key. Duplicate findings across search
// partitions collapse by key when sets are merged.
type Set map[string]*Finding

// Merge adds every finding of other into s, resolving duplicates by key.
func (s Set) Merge(other Set) {
	for k, f := range other {
		s[k] = f
	}
}
