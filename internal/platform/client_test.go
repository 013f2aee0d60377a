package platform

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/pkg/shared/config"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(&config.Config{}, hclog.NewNullLogger(), server.URL, AuthInfo{Token: "squ_test_token"})
	require.NoError(t, err)
	return client, server
}

func TestIssuesSearchParsesPageAndFindings(t *testing.T) {
	var gotQuery map[string]string
	var gotUser string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/issues/search", r.URL.Path)
		gotUser, _, _ = r.BasicAuth()
		gotQuery = map[string]string{
			"p":             r.URL.Query().Get("p"),
			"ps":            r.URL.Query().Get("ps"),
			"componentKeys": r.URL.Query().Get("componentKeys"),
		}
		fmt.Fprint(w, `{
			"paging": {"pageIndex": 2, "pageSize": 500, "total": 720},
			"issues": [{
				"key": "AYX-1",
				"rule": "go:S1763",
				"hash": "feedface",
				"message": "Remove this unreachable code.",
				"component": "proj:pkg/server/handler.go",
				"project": "proj",
				"line": 12,
				"textRange": {"startLine": 12, "endLine": 12, "startOffset": 1, "endOffset": 9},
				"severity": "MAJOR",
				"type": "BUG",
				"status": "OPEN",
				"author": "alice@example.com",
				"creationDate": "2023-04-02T10:15:30+0200",
				"impacts": [{"softwareQuality": "RELIABILITY", "severity": "MEDIUM"}]
			}],
			"facets": [{"property": "directories", "values": [{"val": "pkg/server", "count": 12}]}]
		}`)
	}))

	result, err := client.Issues.Search(map[string]string{"componentKeys": "proj"}, 2, 500)

	require.NoError(t, err)
	assert.Equal(t, "squ_test_token", gotUser, "token rides as the basic-auth user")
	assert.Equal(t, map[string]string{"p": "2", "ps": "500", "componentKeys": "proj"}, gotQuery)
	assert.Equal(t, 720, result.Paging.Total)

	require.Len(t, result.Findings, 1)
	f := result.Findings[0]
	assert.Equal(t, "AYX-1", f.Key)
	assert.Equal(t, "pkg/server/handler.go", f.File())
	assert.Equal(t, findings.TypeBug, f.Type)
	assert.Equal(t, "MEDIUM", f.Impacts["RELIABILITY"])
	assert.Equal(t, 2023, f.CreationDate.Year())

	require.Contains(t, result.Facets, "directories")
	assert.Equal(t, "pkg/server", result.Facets["directories"][0].Val)
}

func TestIssuesChangelogOrderedWithSequenceNumbers(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/issues/changelog", r.URL.Path)
		require.Equal(t, "AYX-1", r.URL.Query().Get("issue"))
		// Server returns events newest first; the client must re-order.
		fmt.Fprint(w, `{"changelog": [
			{"user": "bob", "creationDate": "2023-05-02T09:00:00+0000",
			 "diffs": [{"key": "resolution", "newValue": "WONTFIX"}, {"key": "status", "newValue": "RESOLVED"}]},
			{"user": "alice", "creationDate": "2023-05-01T09:00:00+0000",
			 "diffs": [{"key": "severity", "oldValue": "MAJOR", "newValue": "BLOCKER"}]}
		]}`)
	}))

	entries, err := client.Issues.Changelog("AYX-1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, findings.KindSeverity, entries[0].Kind)
	assert.Equal(t, "BLOCKER", entries[0].Value)
	assert.Equal(t, 0, entries[0].Seq)
	assert.Equal(t, findings.KindWontFix, entries[1].Kind)
	assert.Equal(t, 1, entries[1].Seq)
	assert.True(t, entries[0].Date.Before(entries[1].Date))
}

func TestIssuesCommentsFilteredByKey(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "comments", r.URL.Query().Get("additionalFields"))
		fmt.Fprint(w, `{"issues": [
			{"key": "AYX-1", "comments": [
				{"key": "c2", "login": "bob", "markdown": "second", "createdAt": "2023-05-02T09:00:00+0000"},
				{"key": "c1", "login": "alice", "markdown": "first", "createdAt": "2023-05-01T09:00:00+0000"}
			]},
			{"key": "AYX-other", "comments": [{"key": "c9", "markdown": "noise"}]}
		]}`)
	}))

	comments, err := client.Issues.Comments("AYX-1")

	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Markdown)
	assert.Equal(t, "second", comments[1].Markdown)
}

func TestIssuesAssignPostsForm(t *testing.T) {
	var gotForm map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/issues/assign", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"issue":    r.PostForm.Get("issue"),
			"assignee": r.PostForm.Get("assignee"),
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{}`)
	}))

	require.NoError(t, client.Issues.Assign("AYX-1", "alice"))
	assert.Equal(t, map[string]string{"issue": "AYX-1", "assignee": "alice"}, gotForm)
}

func TestSetSeverityInMQRModeSendsImpact(t *testing.T) {
	var gotForm map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"severity": r.PostForm.Get("severity"),
			"impact":   r.PostForm.Get("impact"),
		}
		fmt.Fprint(w, `{}`)
	}))

	require.NoError(t, client.Issues.SetSeverity("AYX-1", "CRITICAL", findings.TypeBug, true))
	assert.Empty(t, gotForm["severity"])
	assert.Equal(t, "RELIABILITY=HIGH", gotForm["impact"], "the impact quality must follow the issue type")

	require.NoError(t, client.Issues.SetSeverity("AYX-2", "CRITICAL", findings.TypeVulnerability, true))
	assert.Equal(t, "SECURITY=HIGH", gotForm["impact"])

	require.NoError(t, client.Issues.SetSeverity("AYX-1", "CRITICAL", findings.TypeBug, false))
	assert.Equal(t, "CRITICAL", gotForm["severity"])
	assert.Empty(t, gotForm["impact"])
}

func TestProjectsListKeysPaginates(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/projects/search", r.URL.Path)
		switch r.URL.Query().Get("p") {
		case "1":
			fmt.Fprint(w, `{"paging": {"pageIndex": 1, "pageSize": 2, "total": 3},
				"components": [{"key": "proj-a"}, {"key": "proj-b"}]}`)
		case "2":
			fmt.Fprint(w, `{"paging": {"pageIndex": 2, "pageSize": 2, "total": 3},
				"components": [{"key": "proj-c"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("p"))
		}
	}))

	keys, err := client.Projects.ListKeys()

	require.NoError(t, err)
	assert.Equal(t, []string{"proj-a", "proj-b", "proj-c"}, keys)
}

func TestProjectsListKeysMemoizesUntilInvalidated(t *testing.T) {
	fetches := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		fmt.Fprint(w, `{"paging": {"pageIndex": 1, "pageSize": 500, "total": 1},
			"components": [{"key": "proj-a"}]}`)
	}))

	keys, err := client.Projects.ListKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-a"}, keys)

	keys, err = client.Projects.ListKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-a"}, keys)
	assert.Equal(t, 1, fetches, "a second listing must come from the cache")

	client.Projects.InvalidateKeys()
	_, err = client.Projects.ListKeys()
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "invalidation must force a refetch")
}

func TestNotFoundBecomesObjectNotFoundError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Issues.Changelog("missing")

	require.Error(t, err)
	assert.True(t, scanerrors.IsObjectNotFound(err))
}

func TestAPIErrorEnvelopeIsSurfaced(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors": [{"msg": "Insufficient privileges"}]}`)
	}))

	err := client.Issues.SetType("AYX-1", "BUG")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient privileges")
}
