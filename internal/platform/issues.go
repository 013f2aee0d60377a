package platform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sonarsync/sonarsync/internal/findings"
)

// issuesService implements the IssuesService interface.
type issuesService struct {
	*service
}

// NewIssuesService initializes a new issues service.
func NewIssuesService(client *Client) IssuesService {
	return &issuesService{service: &service{client}}
}

// Search retrieves one page of issues matching the given filter parameters.
func (is *issuesService) Search(params map[string]string, page, pageSize int) (*SearchResult, error) {
	query := make(map[string]string, len(params)+2)
	for k, v := range params {
		query[k] = v
	}
	query["p"] = strconv.Itoa(page)
	query["ps"] = strconv.Itoa(pageSize)

	is.client.Logger.Debug("searching issues", "page", page, "pageSize", pageSize)
	response, err := is.client.get("/issues/search", query)
	if err != nil {
		return nil, fmt.Errorf("error searching issues: %w", err)
	}

	var resp issueSearchResponse
	if err := unmarshalResponse(response, &resp); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Paging:   resp.Paging,
		Findings: make([]*findings.Finding, 0, len(resp.Issues)),
	}
	branch := params["branch"]
	for _, issue := range resp.Issues {
		result.Findings = append(result.Findings, issue.toFinding(branch))
	}
	if len(resp.Facets) > 0 {
		result.Facets = make(map[string][]FacetValue, len(resp.Facets))
		for _, f := range resp.Facets {
			result.Facets[f.Property] = f.Values
		}
	}
	return result, nil
}

// Changelog retrieves the manual history of one issue, ordered by date with
// load-time sequence numbers breaking timestamp ties.
func (is *issuesService) Changelog(issueKey string) ([]findings.ChangelogEntry, error) {
	response, err := is.client.get("/issues/changelog", map[string]string{"issue": issueKey})
	if err != nil {
		return nil, fmt.Errorf("error fetching changelog for %q: %w", issueKey, err)
	}

	var resp changelogResponse
	if err := unmarshalResponse(response, &resp); err != nil {
		return nil, err
	}

	entries := make([]findings.ChangelogEntry, 0, len(resp.Changelog))
	for _, event := range resp.Changelog {
		diffs := make([]findings.Diff, 0, len(event.Diffs))
		for _, d := range event.Diffs {
			diffs = append(diffs, findings.Diff{Key: d.Key, OldValue: d.OldValue, NewValue: d.NewValue})
		}
		kind, value := findings.ClassifyDiffs(diffs)
		entries = append(entries, findings.ChangelogEntry{
			Date:  parseDate(event.CreationDate),
			Kind:  kind,
			Value: value,
			User:  event.User,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	for i := range entries {
		entries[i].Seq = i
	}
	return entries, nil
}

// Comments retrieves the comment stream of one issue, ordered by creation date.
func (is *issuesService) Comments(issueKey string) ([]findings.Comment, error) {
	response, err := is.client.get("/issues/search", map[string]string{
		"issues":           issueKey,
		"additionalFields": "comments",
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching comments for %q: %w", issueKey, err)
	}

	var resp struct {
		Issues []struct {
			Key string `json:"key"`
			commentsResponse
		} `json:"issues"`
	}
	if err := unmarshalResponse(response, &resp); err != nil {
		return nil, err
	}

	var comments []findings.Comment
	for _, issue := range resp.Issues {
		if issue.Key != issueKey {
			continue
		}
		for _, c := range issue.Comments {
			comments = append(comments, findings.Comment{
				Key:      c.Key,
				Date:     parseDate(c.CreatedAt),
				Markdown: c.Markdown,
				Login:    c.Login,
			})
		}
	}

	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Date.Before(comments[j].Date) })
	return comments, nil
}

// Assign assigns the issue to the given login, or unassigns it when login is empty.
func (is *issuesService) Assign(issueKey, login string) error {
	is.client.Logger.Debug("assigning issue", "issue", issueKey, "assignee", login)
	params := map[string]string{"issue": issueKey}
	if login != "" {
		params["assignee"] = login
	}
	response, err := is.client.post("/issues/assign", params)
	if err != nil {
		return fmt.Errorf("error assigning issue %q: %w", issueKey, err)
	}
	return checkResponse(response)
}

// DoTransition applies a workflow transition (confirm, unconfirm, reopen,
// falsepositive, wontfix, accept) to the issue.
func (is *issuesService) DoTransition(issueKey, transition string) error {
	is.client.Logger.Debug("applying transition", "issue", issueKey, "transition", transition)
	response, err := is.client.post("/issues/do_transition", map[string]string{
		"issue":      issueKey,
		"transition": transition,
	})
	if err != nil {
		return fmt.Errorf("error applying transition %q to issue %q: %w", transition, issueKey, err)
	}
	return checkResponse(response)
}

// SetSeverity changes the issue severity. In MQR mode the legacy severity is
// translated into an impact on the software quality the issue type maps to,
// since the server rejects impacts the rule does not define.
func (is *issuesService) SetSeverity(issueKey, severity string, issueType findings.Type, mqrMode bool) error {
	is.client.Logger.Debug("setting severity", "issue", issueKey, "severity", severity, "mqrMode", mqrMode)
	params := map[string]string{"issue": issueKey}
	if mqrMode {
		quality := findings.QualityForType(issueType)
		if quality == "" {
			quality = findings.QualityMaintainability
		}
		params["impact"] = fmt.Sprintf("%s=%s", quality, findings.ImpactSeverity(severity))
	} else {
		params["severity"] = severity
	}
	response, err := is.client.post("/issues/set_severity", params)
	if err != nil {
		return fmt.Errorf("error setting severity of issue %q: %w", issueKey, err)
	}
	return checkResponse(response)
}

// SetType changes the issue type. Only meaningful against legacy-mode servers.
func (is *issuesService) SetType(issueKey, issueType string) error {
	is.client.Logger.Debug("setting type", "issue", issueKey, "type", issueType)
	response, err := is.client.post("/issues/set_type", map[string]string{
		"issue": issueKey,
		"type":  issueType,
	})
	if err != nil {
		return fmt.Errorf("error setting type of issue %q: %w", issueKey, err)
	}
	return checkResponse(response)
}

// SetTags replaces the issue tag set.
func (is *issuesService) SetTags(issueKey string, tags []string) error {
	is.client.Logger.Debug("setting tags", "issue", issueKey, "tags", tags)
	response, err := is.client.post("/issues/set_tags", map[string]string{
		"issue": issueKey,
		"tags":  strings.Join(tags, ","),
	})
	if err != nil {
		return fmt.Errorf("error setting tags of issue %q: %w", issueKey, err)
	}
	return checkResponse(response)
}

// AddComment adds a markdown comment to the issue.
func (is *issuesService) AddComment(issueKey, text string) error {
	is.client.Logger.Debug("adding comment", "issue", issueKey)
	response, err := is.client.post("/issues/add_comment", map[string]string{
		"issue": issueKey,
		"text":  text,
	})
	if err != nil {
		return fmt.Errorf("error adding comment to issue %q: %w", issueKey, err)
	}
	return checkResponse(response)
}
