// Package gitcli drives the git executable for branch and commit work on a
// local clone.
package gitcli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the outcome of one git invocation.
type Result struct {
	Success  bool
	Output   string
	Error    string
	ExitCode int
}

// Identity is the committer written into the repository config before a
// commit.
type Identity struct {
	Name  string
	Email string
}

// Runner invokes git. The zero value runs "git" from PATH.
type Runner struct {
	GitPath string
}

// New returns a Runner for the given executable, or "git" if path is empty.
func New(path string) *Runner {
	return &Runner{GitPath: path}
}

func (r *Runner) git() string {
	if r == nil || r.GitPath == "" {
		return "git"
	}
	return r.GitPath
}

// run executes git with args, in repo when it is non-empty. Output holds the
// combined stdout and stderr; on failure Error holds the same text.
func (r *Runner) run(ctx context.Context, repo string, args ...string) Result {
	if repo != "" {
		args = append([]string{"-C", repo}, args...)
	}
	cmd := exec.CommandContext(ctx, r.git(), args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := Result{Output: out.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Success = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Error = res.Output
	default:
		res.ExitCode = -1
		res.Error = "failed to execute git: " + err.Error()
	}
	return res
}

// Available reports whether git can be executed.
func (r *Runner) Available(ctx context.Context) bool {
	return r.run(ctx, "", "--version").Success
}

// Clone clones url into dest. An empty branch uses the remote default and a
// non-positive depth fetches full history.
func (r *Runner) Clone(ctx context.Context, url, dest, branch string, depth int) Result {
	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	args = append(args, "--", url, dest)
	return r.run(ctx, "", args...)
}

// CreateBranch creates name and switches to it, starting from base when given.
func (r *Runner) CreateBranch(ctx context.Context, repo, name, base string) Result {
	args := []string{"checkout", "-b", name}
	if base != "" {
		args = append(args, base)
	}
	return r.run(ctx, repo, args...)
}

// Checkout switches to an existing branch.
func (r *Runner) Checkout(ctx context.Context, repo, name string) Result {
	return r.run(ctx, repo, "checkout", name)
}

// Add stages files. Staging nothing succeeds without running git.
func (r *Runner) Add(ctx context.Context, repo string, files []string) Result {
	if len(files) == 0 {
		return Result{Success: true, Output: "No files to add"}
	}
	args := append([]string{"add", "--"}, files...)
	return r.run(ctx, repo, args...)
}

// Commit records staged changes. When both identity fields are set they are
// written to the repository config first.
func (r *Runner) Commit(ctx context.Context, repo, message string, id Identity) Result {
	if id.Name != "" && id.Email != "" {
		if res := r.run(ctx, repo, "config", "user.name", id.Name); !res.Success {
			res.Error = "Failed to set user.name: " + res.Error
			return res
		}
		if res := r.run(ctx, repo, "config", "user.email", id.Email); !res.Success {
			res.Error = "Failed to set user.email: " + res.Error
			return res
		}
	}
	return r.run(ctx, repo, "commit", "-m", message)
}

// Push pushes branch to remote and sets it as upstream.
func (r *Runner) Push(ctx context.Context, repo, remote, branch string, force bool) Result {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, "--set-upstream", remote, branch)
	return r.run(ctx, repo, args...)
}

// CurrentBranch returns the checked-out branch name.
func (r *Runner) CurrentBranch(ctx context.Context, repo string) (string, bool) {
	res := r.run(ctx, repo, "rev-parse", "--abbrev-ref", "HEAD")
	if !res.Success {
		return "", false
	}
	branch := strings.TrimRight(res.Output, " \n\r\t")
	return branch, branch != ""
}

// BranchExists reports whether name resolves to a revision.
func (r *Runner) BranchExists(ctx context.Context, repo, name string) bool {
	return r.run(ctx, repo, "rev-parse", "--verify", "--quiet", name).Success
}

// Status returns the output of git status.
func (r *Runner) Status(ctx context.Context, repo string) Result {
	return r.run(ctx, repo, "status")
}

// RepoRoot returns the top-level directory of the work tree containing dir.
func (r *Runner) RepoRoot(ctx context.Context, dir string) (string, bool) {
	res := r.run(ctx, dir, "rev-parse", "--show-toplevel")
	if !res.Success {
		return "", false
	}
	return strings.TrimSpace(res.Output), true
}

// Show returns the content of path at rev, as used to read merge inputs
// straight from history.
func (r *Runner) Show(ctx context.Context, repo, rev, path string) Result {
	return r.run(ctx, repo, "show", rev+":"+path)
}
