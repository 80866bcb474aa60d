package root

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flarebyte/nbrun/cmd/nbrun/history"
	"github.com/flarebyte/nbrun/cmd/nbrun/plan"
	"github.com/flarebyte/nbrun/cmd/nbrun/publish"
	"github.com/flarebyte/nbrun/cmd/nbrun/run"
	"github.com/flarebyte/nbrun/cmd/nbrun/version"
	"github.com/flarebyte/nbrun/internal/logger"
)

// NewRootCmd creates the root command for nbrun.
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		logJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "nbrun",
		Short: "Run a fixed sequence of notebooks with shared parameters, stopping at the first failure",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(logger.Options{
				JSON:      logJSON,
				Verbosity: verbosity,
				Writer:    cmd.ErrOrStderr(),
			})
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.FromContext(cmd.Context()).Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity")
	pf.BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
	pf.String("root", ".", "Project root")
	pf.StringP("config", "c", "", "Project file (default <root>/nbrun.cue)")

	// Subcommands
	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(run.Cmd)
	cmd.AddCommand(plan.Cmd)
	cmd.AddCommand(history.Cmd)
	cmd.AddCommand(publish.Cmd)

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}
