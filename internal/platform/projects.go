package platform

import (
	"fmt"
	"strconv"

	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
)

// projectKeysCacheKey is the cache slot holding the full project key list.
const projectKeysCacheKey = "project-keys"

// projectsService implements the ProjectsService interface.
type projectsService struct {
	*service
	pageSize int
}

// NewProjectsService initializes a new projects service with a given pagination page size.
func NewProjectsService(client *Client, pageSize int) ProjectsService {
	if pageSize <= 0 {
		pageSize = 500 // Default page size if not provided
	}
	return &projectsService{
		service:  &service{client},
		pageSize: pageSize,
	}
}

// ListKeys retrieves the keys of all projects, memoized in the client cache:
// one run lists projects once per platform even when both finding kinds
// decompose by project. A NotFound from the server drops the cached list so
// the next call refetches.
func (ps *projectsService) ListKeys() ([]string, error) {
	if cached, ok := ps.client.Cache.Get(projectKeysCacheKey); ok {
		if keys, ok := cached.([]string); ok {
			ps.client.Logger.Debug("using cached project keys", "totalProjects", len(keys))
			return keys, nil
		}
	}

	keys, err := ps.fetchKeys()
	if err != nil {
		if scanerrors.IsObjectNotFound(err) {
			ps.client.Cache.Invalidate(projectKeysCacheKey)
		}
		return nil, err
	}
	ps.client.Cache.Put(projectKeysCacheKey, keys)
	return keys, nil
}

// InvalidateKeys drops the cached project key list so the next ListKeys refetches.
func (ps *projectsService) InvalidateKeys() {
	ps.client.Cache.Invalidate(projectKeysCacheKey)
}

// fetchKeys pages through every project on the platform.
func (ps *projectsService) fetchKeys() ([]string, error) {
	var keys []string
	page := 1
	ps.client.Logger.Debug("fetching list of projects")

	for {
		ps.client.Logger.Debug("fetching page of projects",
			"page", page,
			"pageSize", ps.pageSize,
		)
		query := map[string]string{
			"p":  strconv.Itoa(page),
			"ps": strconv.Itoa(ps.pageSize),
		}

		response, err := ps.client.get("/projects/search", query)
		if err != nil {
			return nil, fmt.Errorf("error fetching projects: %w", err)
		}

		var resp projectSearchResponse
		if err := unmarshalResponse(response, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Components {
			keys = append(keys, p.Key)
		}
		if resp.Paging.PageIndex*resp.Paging.PageSize >= resp.Paging.Total {
			ps.client.Logger.Debug("last page of projects reached")
			break
		}
		page++
	}

	ps.client.Logger.Debug("successfully fetched all projects",
		"totalProjects", len(keys),
	)
	return keys, nil
}
