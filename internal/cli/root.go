// Package cli implements the wizmerge command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/wizmerge/internal/config"
	"github.com/sprite-ai/wizmerge/internal/logging"
)

// ErrConflicts is returned when a merge leaves unresolved conflicts. It only
// sets the exit status; nothing is printed for it.
var ErrConflicts = errors.New("unresolved conflicts remain")

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "wizmerge",
	Short: "Three-way merge with conflict risk analysis",
	Long: `wizmerge merges three versions of a file line by line and, for every
conflict it cannot settle, explains the code around it and scores the risk of
keeping ours, keeping theirs, or keeping both.

It can also resolve every file of a GitHub pull request or GitLab merge
request, and serve the same engine over HTTP.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to TOML config file (default ./wizmerge.toml, then ~/.wizmerge.toml)")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.BoolP("verbose", "v", false, "shorthand for --log-level debug")
	pf.BoolP("quiet", "q", false, "only log errors")

	rootCmd.AddCommand(mergeCmd, riskCmd, contextCmd, prCmd, serveCmd, initConfigCmd, versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = c

	level := cfg.Log.Level
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = "debug"
	}
	logging.Setup(logging.Options{Level: level, Format: cfg.Log.Format})
	if q, _ := cmd.Flags().GetBool("quiet"); q {
		logging.Quiet()
	}

	log.Debug().Str("command", cmd.Name()).Msg("Configuration loaded")
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, ErrConflicts) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
