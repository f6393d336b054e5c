// Package prresolve merges every file of a pull request and optionally
// commits the result to a new local branch.
//
// Each changed file is merged with the base revision as both ancestor and
// our side and the head revision as their side, so the merged content is the
// pull request applied on top of its base.
package prresolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/wizmerge/internal/analysis"
	"github.com/sprite-ai/wizmerge/internal/gitcli"
	"github.com/sprite-ai/wizmerge/internal/merge"
	"github.com/sprite-ai/wizmerge/internal/platform"
)

var (
	// ErrInvalidURL is returned when the request URL names no pull request.
	ErrInvalidURL = errors.New("invalid pull/merge request URL format")
	// ErrFetchFailed is returned when the pull request itself cannot be loaded.
	ErrFetchFailed = errors.New("failed to fetch pull/merge request information")
)

// DefaultConcurrency bounds simultaneous file fetches.
const DefaultConcurrency = 4

// Remote is the subset of the platform client used here.
type Remote interface {
	FetchPullRequest(ctx context.Context, ref platform.Ref) (*platform.PullRequest, error)
	FetchFile(ctx context.Context, ref platform.Ref, sha, path string) ([]string, error)
}

// Git is the subset of the git runner used for branch creation.
type Git interface {
	Available(ctx context.Context) bool
	Clone(ctx context.Context, url, dest, branch string, depth int) gitcli.Result
	CreateBranch(ctx context.Context, repo, name, base string) gitcli.Result
	Add(ctx context.Context, repo string, files []string) gitcli.Result
	Commit(ctx context.Context, repo, message string, id gitcli.Identity) gitcli.Result
}

// Request describes one resolution run.
type Request struct {
	URL          string
	Token        string
	CreateBranch bool
	BranchName   string
}

// FileResult is the outcome for one changed file.
type FileResult struct {
	Filename      string
	Status        string
	Skipped       bool
	Reason        string
	Error         string
	HadConflicts  bool
	AutoResolved  bool
	LockFile      bool
	MergedContent []string

	merged bool
}

// Merged reports whether the file was merged and has content to write.
func (f FileResult) Merged() bool { return f.merged }

// Report is the outcome of a resolution run.
type Report struct {
	PR            *platform.PullRequest
	Files         []FileResult
	TotalFiles    int
	ResolvedCount int
	FailedCount   int

	BranchName    string
	BranchCreated bool
	BranchPath    string
	Note          string
}

// Service resolves pull requests.
type Service struct {
	// NewRemote builds a platform client for the request token, which may be
	// empty.
	NewRemote func(token string) (Remote, error)
	Git       Git
	Identity  gitcli.Identity

	Concurrency int
	// CloneURL overrides the repository URL used for branch creation.
	CloneURL func(ref platform.Ref) string
	// TempDir is the parent of working clones; empty uses the system default.
	TempDir string
}

// Resolve fetches the pull request named by req.URL and merges each file.
// Only an unparseable URL or an unreachable pull request are errors; per-file
// and branch failures are recorded in the report.
func (s *Service) Resolve(ctx context.Context, req Request) (*Report, error) {
	ref, err := platform.ParsePRURL(req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, req.URL)
	}

	remote, err := s.NewRemote(req.Token)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	pr, err := remote.FetchPullRequest(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, ref, err)
	}

	log.Info().Str("pr", ref.String()).Int("files", len(pr.Files)).Msg("Resolving pull request")

	report := &Report{
		PR:         pr,
		Files:      s.mergeFiles(ctx, remote, ref, pr),
		TotalFiles: len(pr.Files),
	}
	for _, f := range report.Files {
		if f.Error != "" {
			report.FailedCount++
		}
		if f.merged && !f.HadConflicts {
			report.ResolvedCount++
		}
	}

	if req.CreateBranch {
		report.BranchName = req.BranchName
		if report.BranchName == "" {
			report.BranchName = "wizmerge-resolved-pr-" + strconv.Itoa(ref.Number)
		}
		s.createBranch(ctx, ref, report)
	}
	return report, nil
}

// mergeFiles processes files concurrently, keeping results in PR order.
func (s *Service) mergeFiles(ctx context.Context, remote Remote, ref platform.Ref, pr *platform.PullRequest) []FileResult {
	results := make([]FileResult, len(pr.Files))

	var g errgroup.Group
	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)

	for i, file := range pr.Files {
		g.Go(func() error {
			results[i] = mergeFile(ctx, remote, ref, pr, file)
			return nil
		})
	}
	g.Wait()
	return results
}

func mergeFile(ctx context.Context, remote Remote, ref platform.Ref, pr *platform.PullRequest, file platform.File) FileResult {
	res := FileResult{
		Filename: file.Filename,
		Status:   file.Status,
		LockFile: analysis.IsLockFile(file.Filename),
	}

	switch file.Status {
	case "removed":
		res.Skipped = true
		res.Reason = "File was deleted"
		return res
	case "modified", "added":
	default:
		return res
	}

	var base []string
	if file.Status == "modified" {
		var err error
		base, err = remote.FetchFile(ctx, ref, pr.BaseSHA, file.Filename)
		if err != nil {
			log.Warn().Err(err).Str("file", file.Filename).Msg("Fetching base version failed")
			res.Error = "Failed to fetch base version"
			return res
		}
	}

	head, err := remote.FetchFile(ctx, ref, pr.HeadSHA, file.Filename)
	if err != nil {
		log.Warn().Err(err).Str("file", file.Filename).Msg("Fetching head version failed")
		res.Error = "Failed to fetch head version"
		return res
	}

	result := merge.AutoResolve(merge.Merge(base, base, head))
	res.merged = true
	res.HadConflicts = result.HasConflicts()
	res.AutoResolved = !res.HadConflicts
	res.MergedContent = result.Contents()
	if res.MergedContent == nil {
		res.MergedContent = []string{}
	}
	return res
}

// createBranch clones the base ref, writes merged files onto a new branch and
// commits them. Failures are reported through report.Note and leave nothing
// behind on disk.
func (s *Service) createBranch(ctx context.Context, ref platform.Ref, report *Report) {
	if s.Git == nil || !s.Git.Available(ctx) {
		report.Note = "Git CLI not available - branch creation skipped"
		return
	}

	dir, err := os.MkdirTemp(s.TempDir, fmt.Sprintf("wizmerge_pr_%d_", ref.Number))
	if err != nil {
		report.Note = "Failed to create working directory: " + err.Error()
		return
	}
	// git clone refuses a non-empty destination; an empty one is fine.
	keep := false
	defer func() {
		if !keep {
			os.RemoveAll(dir)
		}
	}()

	if res := s.Git.Clone(ctx, s.cloneURL(ref), dir, report.PR.BaseRef, 0); !res.Success {
		report.Note = "Failed to clone repository: " + res.Error
		return
	}
	if res := s.Git.CreateBranch(ctx, dir, report.BranchName, ""); !res.Success {
		report.Note = "Failed to create branch: " + res.Error
		return
	}

	var written []string
	for _, f := range report.Files {
		if !f.merged {
			continue
		}
		if err := WriteLines(dir, f.Filename, f.MergedContent); err != nil {
			log.Warn().Err(err).Str("file", f.Filename).Msg("Writing resolved file failed")
			report.Note = "Failed to write some resolved files"
			return
		}
		written = append(written, f.Filename)
	}

	if res := s.Git.Add(ctx, dir, written); !res.Success {
		report.Note = "Failed to stage files: " + res.Error
		return
	}
	msg := "Resolve conflicts for PR #" + strconv.Itoa(ref.Number)
	if res := s.Git.Commit(ctx, dir, msg, s.Identity); !res.Success {
		report.Note = "Failed to commit changes: " + res.Error
		return
	}

	keep = true
	report.BranchCreated = true
	report.BranchPath = dir
	report.Note = fmt.Sprintf("Branch created successfully. Push to remote with: git -C %s push origin %s", dir, report.BranchName)
	log.Info().Str("branch", report.BranchName).Str("path", dir).Msg("Created resolution branch")
}

func (s *Service) cloneURL(ref platform.Ref) string {
	if s.CloneURL != nil {
		return s.CloneURL(ref)
	}
	return DefaultCloneURL(ref)
}

// DefaultCloneURL returns the public HTTPS clone URL for ref's repository.
func DefaultCloneURL(ref platform.Ref) string {
	host := "github.com"
	if ref.Platform == platform.GitLab {
		host = "gitlab.com"
	}
	return "https://" + host + "/" + ref.Project() + ".git"
}

// WriteLines writes lines under root, newline-terminated, refusing paths that
// escape root.
func WriteLines(root, name string, lines []string) error {
	path := filepath.Join(root, filepath.FromSlash(name))
	if rel, err := filepath.Rel(root, path); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes repository", name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
