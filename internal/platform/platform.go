// Package platform fetches pull requests and file contents from GitHub and
// GitLab. Every failure is returned as an error; callers treat any error as
// the value being absent.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrInvalidURL is returned when a URL names no known pull request.
	ErrInvalidURL = errors.New("unrecognized pull request URL")
	// ErrUnsupportedPlatform is returned for refs outside GitHub and GitLab.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrNotFound is returned when the remote reports a missing resource.
	ErrNotFound = errors.New("not found")
)

// Platform identifies a code hosting service.
type Platform int

const (
	Unknown Platform = iota
	GitHub
	GitLab
)

func (p Platform) String() string {
	switch p {
	case GitHub:
		return "github"
	case GitLab:
		return "gitlab"
	default:
		return "unknown"
	}
}

// Ref locates a pull or merge request. For GitLab, Owner holds the group path
// and Repo the project name; a single-segment project leaves Repo empty.
type Ref struct {
	Platform Platform
	Owner    string
	Repo     string
	Number   int
}

// Project returns the full repository path.
func (r Ref) Project() string {
	if r.Repo == "" {
		return r.Owner
	}
	return r.Owner + "/" + r.Repo
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s#%d", r.Platform, r.Project(), r.Number)
}

var (
	githubPRPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?github\.com/([^/]+)/([^/]+)/pull/(\d+)`)
	gitlabMRPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?gitlab\.com/([^/-]+(?:/[^/-]+)*?)/-/merge_requests/(\d+)`)
)

// ParsePRURL recognises GitHub pull request and GitLab merge request URLs.
func ParsePRURL(url string) (Ref, error) {
	if m := githubPRPattern.FindStringSubmatch(url); m != nil {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return Ref{}, fmt.Errorf("%w: %s", ErrInvalidURL, url)
		}
		return Ref{Platform: GitHub, Owner: m[1], Repo: m[2], Number: n}, nil
	}

	if m := gitlabMRPattern.FindStringSubmatch(url); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Ref{}, fmt.Errorf("%w: %s", ErrInvalidURL, url)
		}
		ref := Ref{Platform: GitLab, Owner: m[1], Number: n}
		if i := strings.LastIndex(m[1], "/"); i >= 0 {
			ref.Owner, ref.Repo = m[1][:i], m[1][i+1:]
		}
		return ref, nil
	}

	return Ref{}, fmt.Errorf("%w: %s", ErrInvalidURL, url)
}

// File is one changed file of a pull request.
type File struct {
	Filename  string
	Status    string // added, modified, removed or renamed
	Additions int
	Deletions int
	Changes   int
}

// PullRequest is the platform-neutral view of a pull or merge request.
type PullRequest struct {
	Ref            Ref
	Title          string
	State          string
	BaseRef        string
	HeadRef        string
	BaseSHA        string
	HeadSHA        string
	Mergeable      bool
	MergeableState string
	Files          []File
}

// Options configures a Client.
type Options struct {
	GitHubToken  string
	GitHubAPIURL string
	GitLabToken  string
	GitLabURL    string

	HTTPClient *http.Client
	Retry      RetryConfig

	// RequestsPerSecond throttles outgoing API calls; zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// WithToken returns a copy of o using token for both platforms. An empty
// token leaves the configured tokens in place.
func (o Options) WithToken(token string) Options {
	if token != "" {
		o.GitHubToken = token
		o.GitLabToken = token
	}
	return o
}

// Client talks to whichever platform a Ref names.
type Client struct {
	github *githubClient
	gitlab *gitlabClient
}

// New builds a Client from opts, filling in public endpoints where unset.
func New(opts Options) (*Client, error) {
	if opts.GitHubAPIURL == "" {
		opts.GitHubAPIURL = "https://api.github.com"
	}
	if opts.GitLabURL == "" {
		opts.GitLabURL = "https://gitlab.com"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	gl, err := newGitLabClient(opts, limiter)
	if err != nil {
		return nil, err
	}
	return &Client{
		github: newGitHubClient(opts, limiter),
		gitlab: gl,
	}, nil
}

// FetchPullRequest loads metadata and the changed-file list.
func (c *Client) FetchPullRequest(ctx context.Context, ref Ref) (*PullRequest, error) {
	switch ref.Platform {
	case GitHub:
		return c.github.fetchPullRequest(ctx, ref)
	case GitLab:
		return c.gitlab.fetchPullRequest(ctx, ref)
	default:
		return nil, fmt.Errorf("fetching %s: %w", ref, ErrUnsupportedPlatform)
	}
}

// FetchFile loads the content of path at sha, split into lines.
func (c *Client) FetchFile(ctx context.Context, ref Ref, sha, path string) ([]string, error) {
	switch ref.Platform {
	case GitHub:
		return c.github.fetchFile(ctx, ref, sha, path)
	case GitLab:
		return c.gitlab.fetchFile(ctx, ref, sha, path)
	default:
		return nil, fmt.Errorf("fetching %s: %w", path, ErrUnsupportedPlatform)
	}
}

// splitContent mirrors line-oriented reading: a trailing newline does not
// start another line.
func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
