package platform

import (
	"time"

	"github.com/sonarsync/sonarsync/internal/findings"
)

const dateLayout = "2006-01-02T15:04:05-0700"

// Paging is the paging block every search response carries.
type Paging struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

// FacetValue is one bucket of a server-side facet aggregation.
type FacetValue struct {
	Val   string `json:"val"`
	Count int    `json:"count"`
}

type facet struct {
	Property string       `json:"property"`
	Values   []FacetValue `json:"values"`
}

// SearchResult is one page of findings plus any requested facets.
type SearchResult struct {
	Paging   Paging
	Findings []*findings.Finding
	Facets   map[string][]FacetValue
}

type issueJSON struct {
	Key          string          `json:"key"`
	Rule         string          `json:"rule"`
	Hash         string          `json:"hash"`
	Message      string          `json:"message"`
	Component    string          `json:"component"`
	Project      string          `json:"project"`
	Line         int             `json:"line"`
	TextRange    *findings.Range `json:"textRange"`
	Severity     string          `json:"severity"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Resolution   string          `json:"resolution"`
	Author       string          `json:"author"`
	Tags         []string        `json:"tags"`
	Impacts      []impactJSON    `json:"impacts"`
	CreationDate string          `json:"creationDate"`
	UpdateDate   string          `json:"updateDate"`
}

type impactJSON struct {
	SoftwareQuality string `json:"softwareQuality"`
	Severity        string `json:"severity"`
}

type issueSearchResponse struct {
	Paging Paging      `json:"paging"`
	Issues []issueJSON `json:"issues"`
	Facets []facet     `json:"facets"`
}

type hotspotJSON struct {
	Key                      string          `json:"key"`
	RuleKey                  string          `json:"ruleKey"`
	Hash                     string          `json:"hash"`
	Message                  string          `json:"message"`
	Component                string          `json:"component"`
	Project                  string          `json:"project"`
	Line                     int             `json:"line"`
	TextRange                *findings.Range `json:"textRange"`
	VulnerabilityProbability string          `json:"vulnerabilityProbability"`
	Status                   string          `json:"status"`
	Resolution               string          `json:"resolution"`
	Author                   string          `json:"author"`
	CreationDate             string          `json:"creationDate"`
	UpdateDate               string          `json:"updateDate"`
}

type hotspotSearchResponse struct {
	Paging   Paging        `json:"paging"`
	Hotspots []hotspotJSON `json:"hotspots"`
}

type changelogResponse struct {
	Changelog []changelogEventJSON `json:"changelog"`
}

type changelogEventJSON struct {
	User         string     `json:"user"`
	CreationDate string     `json:"creationDate"`
	Diffs        []diffJSON `json:"diffs"`
}

type diffJSON struct {
	Key      string `json:"key"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

type commentsResponse struct {
	Comments []commentJSON `json:"comments"`
}

type commentJSON struct {
	Key       string `json:"key"`
	Login     string `json:"login"`
	Markdown  string `json:"markdown"`
	CreatedAt string `json:"createdAt"`
}

type projectJSON struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type projectSearchResponse struct {
	Paging     Paging        `json:"paging"`
	Components []projectJSON `json:"components"`
}

// errorList is the error envelope the API returns on 4xx responses.
type errorList struct {
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Msg string `json:"msg"`
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (j issueJSON) toFinding(branch string) *findings.Finding {
	f := &findings.Finding{
		Key:          j.Key,
		Rule:         j.Rule,
		Hash:         j.Hash,
		Message:      j.Message,
		Component:    j.Component,
		Project:      j.Project,
		Branch:       branch,
		Line:         j.Line,
		TextRange:    j.TextRange,
		Severity:     j.Severity,
		Type:         findings.Type(j.Type),
		Status:       j.Status,
		Resolution:   j.Resolution,
		Author:       j.Author,
		Tags:         j.Tags,
		CreationDate: parseDate(j.CreationDate),
		UpdateDate:   parseDate(j.UpdateDate),
	}
	if len(j.Impacts) > 0 {
		f.Impacts = make(map[string]string, len(j.Impacts))
		for _, imp := range j.Impacts {
			f.Impacts[imp.SoftwareQuality] = imp.Severity
		}
	}
	return f
}

func (j hotspotJSON) toFinding(branch string) *findings.Finding {
	return &findings.Finding{
		Key:          j.Key,
		Rule:         j.RuleKey,
		Hash:         j.Hash,
		Message:      j.Message,
		Component:    j.Component,
		Project:      j.Project,
		Branch:       branch,
		Line:         j.Line,
		TextRange:    j.TextRange,
		Severity:     j.VulnerabilityProbability,
		Type:         findings.TypeHotspot,
		Status:       j.Status,
		Resolution:   j.Resolution,
		Author:       j.Author,
		CreationDate: parseDate(j.CreationDate),
		UpdateDate:   parseDate(j.UpdateDate),
	}
}
