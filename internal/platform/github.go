package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	githubAccept    = "application/vnd.github.v3+json"
	userAgent       = "WizardMerge/1.0"
	githubPageLimit = 100
	// githubMaxPages bounds file listing; the API itself stops at 3000 files.
	githubMaxPages = 30
)

type githubClient struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
}

func newGitHubClient(opts Options, limiter *rate.Limiter) *githubClient {
	return &githubClient{
		baseURL: strings.TrimSuffix(opts.GitHubAPIURL, "/"),
		token:   opts.GitHubToken,
		http:    opts.HTTPClient,
		limiter: limiter,
		retry:   opts.Retry,
	}
}

type githubPull struct {
	Title          string `json:"title"`
	State          string `json:"state"`
	Mergeable      *bool  `json:"mergeable"`
	MergeableState string `json:"mergeable_state"`
	Base           struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
}

type githubFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

type githubContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *githubClient) fetchPullRequest(ctx context.Context, ref Ref) (*PullRequest, error) {
	base := fmt.Sprintf("%s/repos/%s/%s/pulls/%d",
		c.baseURL, url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), ref.Number)

	var pull githubPull
	if err := c.getJSON(ctx, base, &pull); err != nil {
		return nil, fmt.Errorf("fetching pull request %s: %w", ref, err)
	}

	pr := &PullRequest{
		Ref:            ref,
		Title:          pull.Title,
		State:          pull.State,
		BaseRef:        pull.Base.Ref,
		BaseSHA:        pull.Base.SHA,
		HeadRef:        pull.Head.Ref,
		HeadSHA:        pull.Head.SHA,
		Mergeable:      pull.Mergeable != nil && *pull.Mergeable,
		MergeableState: pull.MergeableState,
	}
	if pr.MergeableState == "" {
		pr.MergeableState = "unknown"
	}

	for page := 1; page <= githubMaxPages; page++ {
		var files []githubFile
		u := fmt.Sprintf("%s/files?per_page=%d&page=%d", base, githubPageLimit, page)
		if err := c.getJSON(ctx, u, &files); err != nil {
			return nil, fmt.Errorf("fetching files of %s: %w", ref, err)
		}
		for _, f := range files {
			pr.Files = append(pr.Files, File(f))
		}
		if len(files) < githubPageLimit {
			break
		}
	}

	log.Debug().Str("pr", ref.String()).Int("files", len(pr.Files)).Msg("Fetched GitHub pull request")
	return pr, nil
}

func (c *githubClient) fetchFile(ctx context.Context, ref Ref, sha, path string) ([]string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, url.PathEscape(ref.Owner), url.PathEscape(ref.Repo),
		escapePath(path), url.QueryEscape(sha))

	var content githubContent
	if err := c.getJSON(ctx, u, &content); err != nil {
		return nil, fmt.Errorf("fetching %s at %s: %w", path, sha, err)
	}
	if content.Encoding != "base64" {
		return nil, fmt.Errorf("fetching %s at %s: unsupported encoding %q", path, sha, content.Encoding)
	}

	encoded := strings.NewReplacer("\n", "", "\r", "").Replace(content.Content)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return splitContent(string(decoded)), nil
}

// getJSON issues an authenticated GET and decodes the body into v, retrying
// transient failures.
func (c *githubClient) getJSON(ctx context.Context, u string, v any) error {
	return withRetry(ctx, c.retry, u, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Accept", githubAccept)
		req.Header.Set("User-Agent", userAgent)
		if c.token != "" {
			req.Header.Set("Authorization", "token "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			return &StatusError{Code: resp.StatusCode, URL: u}
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	})
}

// escapePath escapes each segment of a repository path, keeping slashes.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
