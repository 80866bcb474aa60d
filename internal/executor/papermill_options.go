package executor

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/flarebyte/nbrun/internal/errors"
)

const (
	DefaultCommand         = "papermill"
	DefaultKernel          = "python3"
	DefaultCaptureMaxBytes = 64 * 1024
)

// Options configure the papermill executor.
type Options struct {
	// Command is the executor command line, e.g. "papermill" or
	// "python -m papermill". It is split with shell quoting rules.
	Command string
	// Kernel is passed as -k; empty omits the flag.
	Kernel string
	// LogOutput adds --log-output so cell output reaches the captured stderr.
	LogOutput bool
	// Args are appended after the generated arguments.
	Args []string
	// WorkingDir is the process working directory; empty inherits ours.
	WorkingDir string
	// Env is overlaid on the inherited environment.
	Env map[string]string
	// CaptureMaxBytes bounds each captured stream; the tail is kept.
	CaptureMaxBytes int
	// ParamsDir holds the temporary parameter files; empty uses os.TempDir.
	ParamsDir string
}

type execOptions struct {
	program         string
	leadingArgs     []string
	kernel          string
	logOutput       bool
	extraArgs       []string
	workingDir      string
	env             map[string]string
	captureMaxBytes int
	paramsDir       string
}

func buildExecOptions(o Options) (execOptions, error) {
	command := strings.TrimSpace(o.Command)
	if command == "" {
		command = DefaultCommand
	}
	words, err := shellquote.Split(command)
	if err != nil {
		return execOptions{}, errors.Wrapf(err, "invalid executor command %q", command)
	}
	if len(words) == 0 {
		return execOptions{}, errors.Newf("invalid executor command %q", command)
	}
	opts := execOptions{
		program:         words[0],
		leadingArgs:     words[1:],
		kernel:          o.Kernel,
		logOutput:       o.LogOutput,
		extraArgs:       append([]string(nil), o.Args...),
		workingDir:      o.WorkingDir,
		env:             map[string]string{},
		captureMaxBytes: o.CaptureMaxBytes,
		paramsDir:       o.ParamsDir,
	}
	if opts.captureMaxBytes <= 0 {
		opts.captureMaxBytes = DefaultCaptureMaxBytes
	}
	for k, v := range o.Env {
		opts.env[k] = v
	}
	return opts, nil
}

// buildArgs renders the argument vector after the program name.
func buildArgs(opts execOptions, req Request, paramsFile string) []string {
	args := append([]string(nil), opts.leadingArgs...)
	args = append(args, req.InputPath, req.OutputPath)
	if opts.kernel != "" {
		args = append(args, "-k", opts.kernel)
	}
	if opts.logOutput {
		args = append(args, "--log-output")
	}
	if paramsFile != "" {
		args = append(args, "-f", paramsFile)
	}
	return append(args, opts.extraArgs...)
}
