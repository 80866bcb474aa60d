package plan

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/flarebyte/nbrun/internal/config"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/pipeline"
	"github.com/flarebyte/nbrun/internal/stage"
)

var (
	flagJSON bool
)

// Cmd implements `nbrun plan`.
var Cmd = &cobra.Command{
	Use:           "plan",
	Short:         "Show the stages a run would execute without executing them",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		ps, err := s.Parameters()
		if err != nil {
			return err
		}
		reg, err := s.Registry()
		if err != nil {
			return err
		}
		p := buildPlan(s, reg, ps, time.Now())
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), p)
		}
		return renderPlan(cmd.OutOrStdout(), p)
	},
}

func init() {
	Cmd.Flags().BoolVar(&flagJSON, "json", false, "Print the plan as JSON")
}

// Plan is the resolved run layout.
type Plan struct {
	ProjectFile  string      `json:"projectFile,omitempty"`
	NotebooksDir string      `json:"notebooksDir"`
	OutputDir    string      `json:"outputDir"`
	ParamsPath   string      `json:"paramsPath"`
	ParamKeys    []string    `json:"paramKeys"`
	Executor     string      `json:"executor"`
	Kernel       string      `json:"kernel"`
	Stages       []PlanStage `json:"stages"`
}

// PlanStage is one row of the plan.
type PlanStage struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Input       string `json:"input"`
	InputExists bool   `json:"inputExists"`
	Output      string `json:"output"`
}

func buildPlan(s config.Settings, reg *stage.Registry, ps params.Set, now time.Time) Plan {
	p := Plan{
		ProjectFile:  relativizeRoot(s.ProjectFile),
		NotebooksDir: relativizeRoot(s.NotebooksDir),
		OutputDir:    relativizeRoot(s.OutputDir),
		ParamsPath:   relativizeRoot(s.ParamsPath),
		ParamKeys:    ps.Keys(),
		Executor:     s.Executor.Command,
		Kernel:       s.Executor.Kernel,
		Stages:       []PlanStage{},
	}
	for _, d := range reg.Descriptors() {
		in := filepath.Join(s.NotebooksDir, d.Name)
		_, err := os.Stat(in)
		p.Stages = append(p.Stages, PlanStage{
			Index:       d.Index,
			Name:        d.Name,
			Input:       relativizeRoot(in),
			InputExists: err == nil,
			Output:      relativizeRoot(pipeline.OutputPath(s.OutputDir, d.Name, now)),
		})
	}
	return p
}

func renderPlan(w io.Writer, p Plan) error {
	data := pterm.TableData{{"#", "Stage", "Input", "Found", "Output"}}
	for _, st := range p.Stages {
		found := "yes"
		if !st.InputExists {
			found = "MISSING"
		}
		data = append(data, []string{strconv.Itoa(st.Index + 1), st.Name, st.Input, found, st.Output})
	}
	if len(p.Stages) == 0 {
		pterm.Fprintln(w, "No stages registered.")
	} else if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render(); err != nil {
		return err
	}
	pterm.Fprintln(w, "Parameters: "+strconv.Itoa(len(p.ParamKeys))+" keys from "+p.ParamsPath)
	pterm.Fprintln(w, "Executor:   "+p.Executor+" (kernel "+p.Kernel+")")
	return nil
}

// relativizeRoot converts an absolute path under the current working
// directory to a relative path for stable output; otherwise returns it.
func relativizeRoot(root string) string {
	if root == "" || root == "." {
		return root
	}
	if !filepath.IsAbs(root) {
		return filepath.ToSlash(root)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return root
	}
	rel, err := filepath.Rel(cwd, root)
	if err != nil {
		return root
	}
	if len(rel) == 0 || rel == "." || rel == root || (len(rel) >= 2 && rel[:2] == "..") {
		return root
	}
	return filepath.ToSlash(rel)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
