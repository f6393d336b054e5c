package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/wizmerge/internal/api"
	"github.com/sprite-ai/wizmerge/internal/client"
	"github.com/sprite-ai/wizmerge/internal/prresolve"
)

var prCmd = &cobra.Command{
	Use:   "pr <url>",
	Short: "Resolve every file of a pull or merge request",
	Long: `Fetch a GitHub pull request or GitLab merge request and merge each changed
file against its base. Deleted and unreadable files are reported and skipped.

With --create-branch the resolved files are committed to a new branch in a
local clone; pushing it is left to you.`,
	Args: cobra.ExactArgs(1),
	RunE: runPR,
}

func init() {
	f := prCmd.Flags()
	f.StringP("token", "t", "", "API token (default from config)")
	f.Bool("create-branch", false, "commit resolved files to a new branch in a local clone")
	f.StringP("branch", "b", "", "name of the branch to create (default wizmerge-resolved-pr-N)")
	f.StringP("output", "o", "", "write resolved files under this directory")
	f.String("format", formatText, "report format: text, json, markdown, yaml")
	f.String("backend", "", "resolve on a wizmerge server at this URL instead of locally")
}

func runPR(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	token, _ := cmd.Flags().GetString("token")
	createBranch, _ := cmd.Flags().GetBool("create-branch")
	branch, _ := cmd.Flags().GetString("branch")
	backend, _ := cmd.Flags().GetString("backend")
	if backend == "" {
		backend = cfg.Client.BackendURL
	}

	var resp api.PRResolveResponse
	if backend != "" {
		log.Debug().Str("backend", backend).Msg("Resolving remotely")
		r, err := client.New(backend, cfg.Client.Timeout).ResolvePR(cmd.Context(), api.PRResolveRequest{
			PRURL:        args[0],
			APIToken:     token,
			CreateBranch: createBranch,
			BranchName:   branch,
		})
		if err != nil {
			return err
		}
		resp = *r
	} else {
		report, err := newResolver(cfg).Resolve(cmd.Context(), prresolve.Request{
			URL:          args[0],
			Token:        token,
			CreateBranch: createBranch,
			BranchName:   branch,
		})
		if errors.Is(err, prresolve.ErrInvalidURL) {
			return fmt.Errorf("%w (supported: GitHub pull requests and GitLab merge requests)", err)
		}
		if err != nil {
			return err
		}
		resp = api.PRResolveReport(report)
	}

	if dir, _ := cmd.Flags().GetString("output"); dir != "" {
		written := 0
		for _, f := range resp.ResolvedFiles {
			if f.MergedContent == nil {
				continue
			}
			if err := prresolve.WriteLines(dir, f.Filename, f.MergedContent); err != nil {
				return fmt.Errorf("writing %s: %w", f.Filename, err)
			}
			written++
		}
		log.Info().Str("dir", dir).Int("files", written).Msg("Resolved files written")
	}

	return writePR(cmd.OutOrStdout(), format, resp)
}

func writePR(w io.Writer, format string, resp api.PRResolveResponse) error {
	if ok, err := writeStructured(w, format, resp); ok {
		return err
	}

	info := resp.PRInfo
	if format == formatMarkdown {
		fmt.Fprintf(w, "## %s #%d: %s\n\n", info.Platform, info.Number, info.Title)
		fmt.Fprintf(w, "`%s` → `%s` | **Resolved:** %d/%d | **Failed:** %d\n\n",
			info.HeadRef, info.BaseRef, resp.ResolvedCount, resp.TotalFiles, resp.FailedCount)
		fmt.Fprintln(w, "| File | Status | Result |")
		fmt.Fprintln(w, "|------|--------|--------|")
		for _, f := range resp.ResolvedFiles {
			fmt.Fprintf(w, "| `%s` | %s | %s |\n", f.Filename, f.Status, fileOutcome(f))
		}
		if resp.Note != "" {
			fmt.Fprintf(w, "\n%s\n", resp.Note)
		}
		return nil
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s #%d: %s", info.Platform, info.Number, info.Title)))
	fmt.Fprintf(w, "  %s %s -> %s (%s)\n", labelStyle.Render("branches:"), info.HeadRef, info.BaseRef, info.State)
	fmt.Fprintf(w, "  %s %d of %d resolved, %d failed\n\n",
		labelStyle.Render("files:   "), resp.ResolvedCount, resp.TotalFiles, resp.FailedCount)

	for _, f := range resp.ResolvedFiles {
		outcome := fileOutcome(f)
		style := cleanStyle
		switch {
		case f.Error != "":
			style = riskHighStyle
		case f.Skipped || f.HadConflicts && !f.AutoResolved:
			style = riskMediumStyle
		}
		fmt.Fprintf(w, "  %-10s %s  %s\n", f.Status, f.Filename, style.Render(outcome))
	}

	if resp.BranchCreated {
		fmt.Fprintf(w, "\n%s %s at %s\n", labelStyle.Render("branch:"), resp.BranchName, resp.BranchPath)
	}
	if resp.Note != "" {
		fmt.Fprintf(w, "\n%s\n", resp.Note)
	}
	return nil
}

func fileOutcome(f api.PRFileJSON) string {
	switch {
	case f.Error != "":
		return "error: " + f.Error
	case f.Skipped:
		return "skipped: " + f.Reason
	case f.HadConflicts && f.AutoResolved:
		return "auto-resolved"
	case f.HadConflicts:
		return "conflicts"
	case f.LockFile:
		return "merged (lock file, consider regenerating)"
	default:
		return "merged"
	}
}
