package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/wizmerge/internal/analysis"
	"github.com/sprite-ai/wizmerge/internal/api"
)

var contextCmd = &cobra.Command{
	Use:   "context <file>",
	Short: "Describe the code around a line range",
	Long: `Report the enclosing function and class, the imports, and the surrounding
lines for a range of a file. Line numbers are 1-based.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	f := contextCmd.Flags()
	f.IntP("line", "l", 1, "first line of the range")
	f.Int("end", 0, "last line of the range (default --line)")
	f.IntP("window", "w", analysis.DefaultContextWindow, "lines of context on each side")
	f.String("format", formatText, "report format: text, json, markdown, yaml")
}

func runContext(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	lines, err := readLines(args[0])
	if err != nil {
		return err
	}

	line, _ := cmd.Flags().GetInt("line")
	end, _ := cmd.Flags().GetInt("end")
	if end == 0 {
		end = line
	}
	window, _ := cmd.Flags().GetInt("window")

	resp, err := api.RunContext(api.ContextRequest{
		Lines:  lines,
		Start:  line - 1,
		End:    end - 1,
		Window: &window,
	})
	if err != nil {
		return err
	}
	return writeContext(cmd.OutOrStdout(), format, resp)
}
