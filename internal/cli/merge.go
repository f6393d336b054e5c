package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/wizmerge/internal/api"
	"github.com/sprite-ai/wizmerge/internal/client"
	"github.com/sprite-ai/wizmerge/internal/diff"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <base> [ours] [theirs]",
	Short: "Three-way merge of a file",
	Long: `Merge two edited versions of a file against their common base.

Either side may be given as a unified diff against base with --ours-patch or
--theirs-patch instead of a file argument. Whitespace-only conflicts are
settled automatically unless --no-auto-resolve is set.

Exits with status 1 when conflicts remain and no --resolve strategy was given.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runMerge,
}

func init() {
	f := mergeCmd.Flags()
	f.StringP("output", "o", "", "write the merged (or resolved) content to this file")
	f.String("format", formatText, "report format: text, json, markdown, yaml")
	f.Bool("color", false, "syntax-highlight merged content in text output")
	f.Bool("no-auto-resolve", false, "keep whitespace-only conflicts")
	f.String("resolve", "", "settle every conflict with a strategy: ours, theirs, both")
	f.String("ours-patch", "", "unified diff producing our side from base")
	f.String("theirs-patch", "", "unified diff producing their side from base")
	f.String("backend", "", "merge on a wizmerge server at this URL instead of locally")
}

func runMerge(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	req, err := mergeRequest(cmd, args)
	if err != nil {
		return err
	}

	backend, _ := cmd.Flags().GetString("backend")
	if backend == "" {
		backend = cfg.Client.BackendURL
	}

	var resp *api.MergeResponse
	if backend != "" {
		log.Debug().Str("backend", backend).Msg("Merging remotely")
		resp, err = client.New(backend, cfg.Client.Timeout).Merge(cmd.Context(), req)
	} else {
		resp, err = api.RunMerge(req)
	}
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		content := resp.Merged
		if resp.Resolved != nil {
			content = resp.Resolved
		}
		if err := os.WriteFile(output, []byte(diff.JoinLines(content)), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		log.Info().Str("file", output).Int("lines", len(content)).Msg("Merged content written")
	}

	color, _ := cmd.Flags().GetBool("color")
	view := mergeView{filename: args[0], color: color, showContent: output == ""}
	if err := writeMerge(cmd.OutOrStdout(), format, resp, view); err != nil {
		return err
	}

	if resp.HasConflicts && resp.Resolved == nil {
		return ErrConflicts
	}
	return nil
}

// mergeRequest reads the three sides named on the command line.
func mergeRequest(cmd *cobra.Command, args []string) (api.MergeRequest, error) {
	var req api.MergeRequest
	var err error

	if req.Base, err = readLines(args[0]); err != nil {
		return req, err
	}

	oursPatch, _ := cmd.Flags().GetString("ours-patch")
	theirsPatch, _ := cmd.Flags().GetString("theirs-patch")
	rest := args[1:]

	if oursPatch != "" {
		if req.OursPatch, err = readFile(oursPatch); err != nil {
			return req, err
		}
	} else {
		if len(rest) == 0 {
			return req, errors.New("missing ours: give a file or --ours-patch")
		}
		if req.Ours, err = readLines(rest[0]); err != nil {
			return req, err
		}
		rest = rest[1:]
	}

	if theirsPatch != "" {
		if req.TheirsPatch, err = readFile(theirsPatch); err != nil {
			return req, err
		}
	} else {
		if len(rest) == 0 {
			return req, errors.New("missing theirs: give a file or --theirs-patch")
		}
		if req.Theirs, err = readLines(rest[0]); err != nil {
			return req, err
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return req, fmt.Errorf("unexpected argument %q", rest[0])
	}

	if noAuto, _ := cmd.Flags().GetBool("no-auto-resolve"); noAuto {
		off := false
		req.AutoResolve = &off
	}
	req.Resolve, _ = cmd.Flags().GetString("resolve")
	return req, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// readLines reads a file as lines. A trailing newline does not add an empty
// line.
func readLines(path string) ([]string, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	lines := diff.SplitLines(data)
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}
