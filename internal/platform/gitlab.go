package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

const gitlabPageSize = 100

type gitlabClient struct {
	api   *gitlab.Client
	retry RetryConfig
}

func newGitLabClient(opts Options, limiter *rate.Limiter) (*gitlabClient, error) {
	api, err := gitlab.NewClient(opts.GitLabToken,
		gitlab.WithBaseURL(strings.TrimSuffix(opts.GitLabURL, "/")),
		gitlab.WithHTTPClient(opts.HTTPClient),
		gitlab.WithCustomLimiter(limiter),
		// Retries are handled by withRetry so both platforms behave alike.
		gitlab.WithoutRetries(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return &gitlabClient{api: api, retry: opts.Retry}, nil
}

func (c *gitlabClient) fetchPullRequest(ctx context.Context, ref Ref) (*PullRequest, error) {
	pid := ref.Project()

	var mr *gitlab.MergeRequest
	err := withRetry(ctx, c.retry, "merge request "+ref.String(), func() error {
		var err error
		mr, _, err = c.api.MergeRequests.GetMergeRequest(pid, ref.Number, nil, gitlab.WithContext(ctx))
		return gitlabError(err, pid)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching merge request %s: %w", ref, err)
	}

	pr := &PullRequest{
		Ref:            ref,
		Title:          mr.Title,
		State:          mr.State,
		BaseRef:        mr.TargetBranch,
		HeadRef:        mr.SourceBranch,
		MergeableState: mr.MergeStatus,
		Mergeable:      mr.MergeStatus == "can_be_merged",
	}
	pr.BaseSHA = mr.DiffRefs.BaseSha
	pr.HeadSHA = mr.DiffRefs.HeadSha

	opt := &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: gitlabPageSize, Page: 1},
	}
	for {
		var diffs []*gitlab.MergeRequestDiff
		var resp *gitlab.Response
		err := withRetry(ctx, c.retry, "merge request diffs "+ref.String(), func() error {
			var err error
			diffs, resp, err = c.api.MergeRequests.ListMergeRequestDiffs(pid, ref.Number, opt, gitlab.WithContext(ctx))
			return gitlabError(err, pid)
		})
		if err != nil {
			return nil, fmt.Errorf("fetching changes of %s: %w", ref, err)
		}

		for _, d := range diffs {
			pr.Files = append(pr.Files, gitlabFile(d))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	log.Debug().Str("pr", ref.String()).Int("files", len(pr.Files)).Msg("Fetched GitLab merge request")
	return pr, nil
}

// gitlabFile derives a status from the diff flags. The changes endpoint
// carries no line counts.
func gitlabFile(d *gitlab.MergeRequestDiff) File {
	f := File{Filename: d.NewPath}
	if f.Filename == "" {
		f.Filename = d.OldPath
	}
	switch {
	case d.NewFile:
		f.Status = "added"
	case d.DeletedFile:
		f.Status = "removed"
	case d.RenamedFile:
		f.Status = "renamed"
	default:
		f.Status = "modified"
	}
	return f
}

func (c *gitlabClient) fetchFile(ctx context.Context, ref Ref, sha, path string) ([]string, error) {
	pid := ref.Project()

	var raw []byte
	err := withRetry(ctx, c.retry, "raw file "+path, func() error {
		var err error
		raw, _, err = c.api.RepositoryFiles.GetRawFile(pid, path,
			&gitlab.GetRawFileOptions{Ref: gitlab.Ptr(sha)}, gitlab.WithContext(ctx))
		return gitlabError(err, pid)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s at %s: %w", path, sha, err)
	}
	return splitContent(string(raw)), nil
}

// gitlabError converts client errors into StatusError so that retry and
// not-found handling match the GitHub client.
func gitlabError(err error, pid string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gitlab.ErrNotFound) {
		return permanent(fmt.Errorf("project %s: %w", pid, ErrNotFound))
	}
	var er *gitlab.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		se := &StatusError{Code: er.Response.StatusCode, URL: pid}
		if er.Response.Request != nil {
			se.URL = er.Response.Request.URL.String()
		}
		return se
	}
	return err
}
