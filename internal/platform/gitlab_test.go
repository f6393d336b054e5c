package platform

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGitLabServer serves the subset of the v4 API used for merge requests in
// project group/sub/app. Project paths arrive URL-encoded.
func newGitLabServer(t *testing.T) *httptest.Server {
	t.Helper()
	const project = "/api/v4/projects/group%2Fsub%2Fapp"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "glpat", r.Header.Get("PRIVATE-TOKEN"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.EscapedPath() {
		case project + "/merge_requests/9":
			json.NewEncoder(w).Encode(map[string]any{
				"iid":           9,
				"title":         "Refactor parser",
				"state":         "opened",
				"source_branch": "refactor",
				"target_branch": "main",
				"merge_status":  "can_be_merged",
				"diff_refs":     map[string]string{"base_sha": "b1", "head_sha": "h2", "start_sha": "b1"},
			})
		case project + "/merge_requests/9/diffs":
			if r.URL.Query().Get("page") == "2" {
				json.NewEncoder(w).Encode([]map[string]any{
					{"old_path": "gone.go", "new_path": "gone.go", "deleted_file": true},
				})
				return
			}
			w.Header().Set("X-Next-Page", "2")
			json.NewEncoder(w).Encode([]map[string]any{
				{"old_path": "parser.go", "new_path": "parser.go"},
				{"old_path": "", "new_path": "lexer.go", "new_file": true},
			})
		case project + "/repository/files/src%2Fparser.go/raw":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "package src\n// at %s\n", r.URL.Query().Get("ref"))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"404 Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGitLabFetchPullRequest(t *testing.T) {
	srv := newGitLabServer(t)
	c, err := New(Options{GitLabURL: srv.URL, GitLabToken: "glpat", Retry: fastRetry})
	require.NoError(t, err)

	ref, err := ParsePRURL("https://gitlab.com/group/sub/app/-/merge_requests/9")
	require.NoError(t, err)

	pr, err := c.FetchPullRequest(t.Context(), ref)
	require.NoError(t, err)

	assert.Equal(t, "Refactor parser", pr.Title)
	assert.Equal(t, "main", pr.BaseRef)
	assert.Equal(t, "refactor", pr.HeadRef)
	assert.Equal(t, "b1", pr.BaseSHA)
	assert.Equal(t, "h2", pr.HeadSHA)
	assert.True(t, pr.Mergeable)
	assert.Equal(t, []File{
		{Filename: "parser.go", Status: "modified"},
		{Filename: "lexer.go", Status: "added"},
		{Filename: "gone.go", Status: "removed"},
	}, pr.Files)
}

func TestGitLabFetchFile(t *testing.T) {
	srv := newGitLabServer(t)
	c, err := New(Options{GitLabURL: srv.URL, GitLabToken: "glpat", Retry: fastRetry})
	require.NoError(t, err)

	ref := Ref{Platform: GitLab, Owner: "group/sub", Repo: "app", Number: 9}
	lines, err := c.FetchFile(t.Context(), ref, "h2", "src/parser.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"package src", "// at h2"}, lines)

	_, err = c.FetchFile(t.Context(), ref, "h2", "missing.go")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGitLabMissingMergeRequest(t *testing.T) {
	srv := newGitLabServer(t)
	c, err := New(Options{GitLabURL: srv.URL, GitLabToken: "glpat", Retry: fastRetry})
	require.NoError(t, err)

	_, err = c.FetchPullRequest(t.Context(), Ref{Platform: GitLab, Owner: "group/sub", Repo: "app", Number: 404})
	assert.ErrorIs(t, err, ErrNotFound)
}
