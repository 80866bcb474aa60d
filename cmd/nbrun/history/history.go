package history

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/flarebyte/nbrun/internal/config"
	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/ledger"
	"github.com/flarebyte/nbrun/internal/logger"
)

var (
	flagLimit int
	flagRun   string
)

// Cmd implements `nbrun history`.
var Cmd = &cobra.Command{
	Use:           "history",
	Short:         "List recorded runs, or the stages of one run",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		if _, err := os.Stat(s.Ledger.Path); os.IsNotExist(err) {
			pterm.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}
		log := logger.FromContext(cmd.Context())
		db, err := ledger.OpenWithMigrations(s.Ledger.Path, log)
		if err != nil {
			return err
		}
		store := ledger.NewStore(db, log)
		defer store.Close()

		if flagRun != "" {
			run, stages, err := store.GetRun(cmd.Context(), flagRun)
			if err != nil {
				return err
			}
			return renderRun(cmd.OutOrStdout(), run, stages)
		}
		runs, err := store.ListRuns(cmd.Context(), flagLimit)
		if err != nil {
			return err
		}
		return renderRuns(cmd.OutOrStdout(), runs)
	},
}

func init() {
	Cmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of runs to list (0 for all)")
	Cmd.Flags().StringVar(&flagRun, "run", "", "Show the stages of this run")
	Cmd.Flags().String("ledger-path", "", "Run history database")
}

const timeFormat = "2006-01-02 15:04:05"

func renderRuns(w io.Writer, runs []ledger.RunEntry) error {
	if len(runs) == 0 {
		pterm.Fprintln(w, "No runs recorded yet.")
		return nil
	}
	data := pterm.TableData{{"Run", "State", "Started", "Duration", "Branch", "Commit", "Error"}}
	for _, r := range runs {
		data = append(data, []string{
			r.ID,
			string(r.State),
			r.StartedAt.Local().Format(timeFormat),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			r.Branch,
			revision(r),
			r.Error,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
}

func renderRun(w io.Writer, run ledger.RunEntry, stages []ledger.StageEntry) error {
	pterm.Fprintln(w, "Run "+run.ID+" ("+string(run.State)+")")
	if rev := revision(run); rev != "" {
		line := "Commit " + rev
		if run.Branch != "" {
			line += " on " + run.Branch
		}
		pterm.Fprintln(w, line)
	}
	if len(stages) == 0 {
		pterm.Fprintln(w, "No stages executed.")
		return nil
	}
	data := pterm.TableData{{"#", "Stage", "Outcome", "Duration", "Output", "Error"}}
	for _, st := range stages {
		data = append(data, []string{
			strconv.Itoa(st.Position + 1),
			st.Stage,
			string(st.Outcome),
			st.FinishedAt.Sub(st.StartedAt).Round(time.Millisecond).String(),
			st.OutputPath,
			st.Error,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render(); err != nil {
		return errors.Wrap(err, "render stages")
	}
	return nil
}

// revision is the short commit, marked when the worktree had local changes.
func revision(r ledger.RunEntry) string {
	commit := r.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if commit != "" && r.Dirty {
		commit += " (dirty)"
	}
	return commit
}
