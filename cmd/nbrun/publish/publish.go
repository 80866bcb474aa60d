package publish

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/flarebyte/nbrun/internal/config"
	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/ledger"
	"github.com/flarebyte/nbrun/internal/logger"
	"github.com/flarebyte/nbrun/internal/pipeline"
	bucket "github.com/flarebyte/nbrun/internal/publish"
)

var (
	flagRun string
)

// Cmd implements `nbrun publish`.
var Cmd = &cobra.Command{
	Use:           "publish",
	Short:         "Upload the notebooks produced by a recorded run to the artifact bucket",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		pub, err := bucket.New(bucket.ConfigFromSettings(s.Publish), log)
		if err != nil {
			return err
		}
		db, err := ledger.OpenWithMigrations(s.Ledger.Path, log)
		if err != nil {
			return err
		}
		store := ledger.NewStore(db, log)
		defer store.Close()

		runID := flagRun
		if runID == "" {
			runs, err := store.ListRuns(ctx, 1)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				return errors.New("no runs recorded")
			}
			runID = runs[0].ID
		}
		_, stages, err := store.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		files := artifactFiles(stages)
		if len(files) == 0 {
			return errors.Newf("run %s has no artifacts to publish", runID)
		}
		objs, err := pub.Publish(ctx, runID, files)
		if err != nil {
			return err
		}
		pterm.Fprintln(cmd.OutOrStdout(), pterm.Sprintf("Published %d artifacts of run %s to %s", len(objs), runID, s.Publish.Bucket))
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&flagRun, "run", "", "Run id (default: most recent run)")
	Cmd.Flags().String("bucket", "", "Destination bucket")
	Cmd.Flags().String("endpoint", "", "Object store endpoint (host:port)")
	Cmd.Flags().String("ledger-path", "", "Run history database")
}

// artifactFiles lists the outputs of successful stages that still exist.
func artifactFiles(stages []ledger.StageEntry) []string {
	out := []string{}
	for _, st := range stages {
		if st.Outcome != pipeline.OutcomeSuccess {
			continue
		}
		if _, err := os.Stat(st.OutputPath); err != nil {
			continue
		}
		out = append(out, st.OutputPath)
	}
	return out
}
