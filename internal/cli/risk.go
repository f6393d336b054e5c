package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/wizmerge/internal/api"
)

var riskCmd = &cobra.Command{
	Use:   "risk <base> <ours> <theirs>",
	Short: "Score the risk of each way to settle a conflict",
	Long: `Compare keeping ours, keeping theirs, and keeping both for one conflicting
region. Each file holds that side's lines of the region.`,
	Args: cobra.ExactArgs(3),
	RunE: runRisk,
}

func init() {
	riskCmd.Flags().String("format", formatText, "report format: text, json, markdown, yaml")
}

func runRisk(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	sides := make([][]string, len(args))
	for i, path := range args {
		lines, err := readLines(path)
		if err != nil {
			return err
		}
		sides[i] = lines
	}

	resp := api.RunRisk(api.RiskRequest{Base: sides[0], Ours: sides[1], Theirs: sides[2]})
	return writeRisk(cmd.OutOrStdout(), format, resp)
}
