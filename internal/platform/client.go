package platform

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/pkg/shared/config"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
	"github.com/sonarsync/sonarsync/pkg/shared/httpclient"
)

// service wraps a client to access different services.
type service struct {
	client *Client
}

// Client configures and manages access to one SonarQube Server/Cloud instance,
// holding service implementations and an HTTP client.
type Client struct {
	HTTPClient *httpclient.Client
	BaseURL    string
	Logger     hclog.Logger
	Cache      *Cache
	Issues     IssuesService
	Hotspots   HotspotsService
	Projects   ProjectsService
}

// IssuesService defines the interface for issue-related operations.
type IssuesService interface {
	Search(params map[string]string, page, pageSize int) (*SearchResult, error)
	Changelog(issueKey string) ([]findings.ChangelogEntry, error)
	Comments(issueKey string) ([]findings.Comment, error)
	Assign(issueKey, login string) error
	DoTransition(issueKey, transition string) error
	SetSeverity(issueKey, severity string, issueType findings.Type, mqrMode bool) error
	SetType(issueKey, issueType string) error
	SetTags(issueKey string, tags []string) error
	AddComment(issueKey, text string) error
}

// HotspotsService defines the interface for hotspot-related operations.
type HotspotsService interface {
	Search(params map[string]string, page, pageSize int) (*SearchResult, error)
	History(hotspotKey string) ([]findings.ChangelogEntry, []findings.Comment, error)
	ChangeStatus(hotspotKey, status, resolution, comment string) error
	AddComment(hotspotKey, text string) error
}

// ProjectsService defines the interface for project-related operations.
type ProjectsService interface {
	ListKeys() ([]string, error)
	InvalidateKeys()
}

// AuthInfo holds authentication details for platform access. Tokens are sent as
// the basic-auth username with an empty password.
type AuthInfo struct {
	Token string
}

// resolveURL constructs the full URL by checking if the path is absolute or relative.
func (c *Client) resolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.BaseURL + path
}

// headersBuilder returns a common request builder with the necessary headers.
func (c *Client) headersBuilder() *resty.Request {
	return c.HTTPClient.RestyClient.R().
		SetHeader("Accept", "application/json")
}

// get sends a GET request using the client's base URL, path, and query parameters provided.
func (c *Client) get(path string, queryParams map[string]string) (*resty.Response, error) {
	fullURL := c.resolveURL(path)
	return c.headersBuilder().
		SetQueryParams(queryParams).
		Get(fullURL)
}

// post sends a POST request with form parameters, as the write endpoints expect.
func (c *Client) post(path string, formParams map[string]string) (*resty.Response, error) {
	fullURL := c.resolveURL(path)
	return c.headersBuilder().
		SetFormData(formParams).
		Post(fullURL)
}

// unmarshalResponse is a generic function to parse JSON body from response into the provided type.
// It also checks the HTTP response code and API error messages.
func unmarshalResponse[T any](resp *resty.Response, out *T) error {
	if resp.StatusCode() == http.StatusNotFound {
		return scanerrors.NewObjectNotFoundError("resource", resp.Request.URL)
	}
	if resp.StatusCode() >= 400 {
		var errList errorList
		if err := json.Unmarshal(resp.Body(), &errList); err == nil && len(errList.Errors) > 0 {
			return fmt.Errorf("API error(s) occurred with status code %d: %+v", resp.StatusCode(), errList.Errors)
		}
		return fmt.Errorf("API request failed with status code %d and response: %s", resp.StatusCode(), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// checkResponse validates the HTTP response code of a write call with no useful body.
func checkResponse(resp *resty.Response) error {
	if resp.StatusCode() == http.StatusNotFound {
		return scanerrors.NewObjectNotFoundError("resource", resp.Request.URL)
	}
	if resp.StatusCode() >= 400 {
		var errList errorList
		if err := json.Unmarshal(resp.Body(), &errList); err == nil && len(errList.Errors) > 0 {
			return fmt.Errorf("API error(s) occurred with status code %d: %+v", resp.StatusCode(), errList.Errors)
		}
		return fmt.Errorf("API request failed with status code %d and response: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// New initializes a new API client with configured services for one platform instance.
func New(globalConfig *config.Config, logger hclog.Logger, baseURL string, auth AuthInfo) (*Client, error) {
	httpClient, err := httpclient.New(logger, globalConfig)
	if err != nil {
		logger.Error("failed to initialize HTTP client", "error", err)
		return nil, err
	}

	httpClient.RestyClient.
		SetBasicAuth(auth.Token, "")

	baseURL = strings.TrimRight(baseURL, "/")
	client := &Client{
		HTTPClient: httpClient,
		BaseURL:    baseURL + "/api",
		Logger:     logger,
		Cache:      NewCache(baseURL),
	}

	client.Issues = NewIssuesService(client)
	client.Hotspots = NewHotspotsService(client)
	client.Projects = NewProjectsService(client, 0)

	return client, nil
}
