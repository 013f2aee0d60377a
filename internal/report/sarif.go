package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/sonarsync/sonarsync/internal/findings"
)

const toolName = "sonarsync"
const toolURI = "https://github.com/sonarsync/sonarsync"

var severityLevels = map[string]string{
	findings.SeverityInfo:     "note",
	findings.SeverityMinor:    "note",
	findings.SeverityMajor:    "warning",
	findings.SeverityCritical: "error",
	findings.SeverityBlocker:  "error",
}

// WriteSARIF renders a finding set as a SARIF report, one result per finding.
func WriteSARIF(w io.Writer, set findings.Set) error {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	seenRules := map[string]bool{}
	for _, f := range set {
		if !seenRules[f.Rule] {
			run.AddRule(f.Rule)
			seenRules[f.Rule] = true
		}

		level, ok := severityLevels[f.Severity]
		if !ok {
			level = "warning"
		}
		result := run.CreateResultForRule(f.Rule).
			WithLevel(level).
			WithMessage(sarif.NewTextMessage(f.Message))
		location := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewSimpleArtifactLocation(f.File()))
		if f.Line > 0 {
			location.WithRegion(sarif.NewSimpleRegion(f.Line, f.Line))
		}
		result.AddLocation(sarif.NewLocationWithPhysicalLocation(location))
	}

	sarifReport.AddRun(run)
	return sarifReport.Write(w)
}
