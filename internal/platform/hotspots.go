package platform

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sonarsync/sonarsync/internal/findings"
)

// hotspotsService implements the HotspotsService interface.
type hotspotsService struct {
	*service
}

// NewHotspotsService initializes a new hotspots service.
func NewHotspotsService(client *Client) HotspotsService {
	return &hotspotsService{service: &service{client}}
}

// Search retrieves one page of security hotspots matching the given filter parameters.
func (hs *hotspotsService) Search(params map[string]string, page, pageSize int) (*SearchResult, error) {
	query := make(map[string]string, len(params)+2)
	for k, v := range params {
		query[k] = v
	}
	query["p"] = strconv.Itoa(page)
	query["ps"] = strconv.Itoa(pageSize)

	hs.client.Logger.Debug("searching hotspots", "page", page, "pageSize", pageSize)
	response, err := hs.client.get("/hotspots/search", query)
	if err != nil {
		return nil, fmt.Errorf("error searching hotspots: %w", err)
	}

	var resp hotspotSearchResponse
	if err := unmarshalResponse(response, &resp); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Paging:   resp.Paging,
		Findings: make([]*findings.Finding, 0, len(resp.Hotspots)),
	}
	branch := params["branch"]
	for _, h := range resp.Hotspots {
		result.Findings = append(result.Findings, h.toFinding(branch))
	}
	return result, nil
}

// History retrieves the changelog and comment streams of one hotspot, both
// ordered by date, with load-time sequence numbers breaking changelog ties.
func (hs *hotspotsService) History(hotspotKey string) ([]findings.ChangelogEntry, []findings.Comment, error) {
	response, err := hs.client.get("/hotspots/show", map[string]string{"hotspot": hotspotKey})
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching hotspot %q: %w", hotspotKey, err)
	}

	var resp struct {
		Changelog []changelogEventJSON `json:"changelog"`
		Comments  []commentJSON        `json:"comment"`
	}
	if err := unmarshalResponse(response, &resp); err != nil {
		return nil, nil, err
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

	comments := make([]findings.Comment, 0, len(resp.Comments))
	for _, c := range resp.Comments {
		comments = append(comments, findings.Comment{
			Key:      c.Key,
			Date:     parseDate(c.CreatedAt),
			Markdown: c.Markdown,
			Login:    c.Login,
		})
	}
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Date.Before(comments[j].Date) })

	return entries, comments, nil
}

// ChangeStatus moves a hotspot to TO_REVIEW or REVIEWED with an optional
// resolution (FIXED, SAFE, ACKNOWLEDGED) and comment.
func (hs *hotspotsService) ChangeStatus(hotspotKey, status, resolution, comment string) error {
	hs.client.Logger.Debug("changing hotspot status", "hotspot", hotspotKey, "status", status, "resolution", resolution)
	params := map[string]string{
		"hotspot": hotspotKey,
		"status":  status,
	}
	if resolution != "" {
		params["resolution"] = resolution
	}
	if comment != "" {
		params["comment"] = comment
	}
	response, err := hs.client.post("/hotspots/change_status", params)
	if err != nil {
		return fmt.Errorf("error changing status of hotspot %q: %w", hotspotKey, err)
	}
	return checkResponse(response)
}

// AddComment adds a markdown comment to the hotspot.
func (hs *hotspotsService) AddComment(hotspotKey, text string) error {
	hs.client.Logger.Debug("adding hotspot comment", "hotspot", hotspotKey)
	response, err := hs.client.post("/hotspots/add_comment", map[string]string{
		"hotspot": hotspotKey,
		"comment": text,
	})
	if err != nil {
		return fmt.Errorf("error adding comment to hotspot %q: %w", hotspotKey, err)
	}
	return checkResponse(response)
}
