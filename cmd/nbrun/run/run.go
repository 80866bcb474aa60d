package run

import (
	"github.com/spf13/cobra"

	"github.com/flarebyte/nbrun/internal/config"
	"github.com/flarebyte/nbrun/internal/logger"
)

var (
	flagNoLedger bool
)

// Cmd represents the `nbrun run` command.
var Cmd = &cobra.Command{
	Use:           "run",
	Short:         "Execute every stage in order, stopping at the first failure",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return evaluateRunExit(err)
		}
		if flagNoLedger {
			s.Ledger.Enabled = false
		}
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		prep, err := preparePipeline(s, log)
		if err != nil {
			return evaluateRunExit(err)
		}
		run, runErr := prep.controller.Run(ctx, prep.registry, prep.params)
		if s.Ledger.Enabled {
			recordRun(ctx, s, run, prep.params, log)
		}
		return evaluateRunExit(runErr)
	},
}

func init() {
	Cmd.Flags().String("notebooks-dir", "", "Directory holding the stage notebooks")
	Cmd.Flags().String("output-dir", "", "Directory receiving executed notebooks")
	Cmd.Flags().String("params", "", "Parameter document (.yaml, .json or .toml)")
	Cmd.Flags().String("kernel", "", "Kernel name passed to the executor")
	Cmd.Flags().String("executor", "", "Executor command line")
	Cmd.Flags().Int("heartbeat", 0, "Seconds between still-running logs (0 disables)")
	Cmd.Flags().String("ledger-path", "", "Run history database")
	Cmd.Flags().BoolVar(&flagNoLedger, "no-ledger", false, "Do not record the run in the history database")
}
