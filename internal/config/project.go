// Package config resolves nbrun settings from built-in defaults, the optional
// nbrun.cue project file, NBRUN_* environment variables and command flags,
// in increasing order of precedence.
package config

import "cuelang.org/go/cue"

// DefaultFileName is the project file looked up in the project root.
const DefaultFileName = "nbrun.cue"

// Project holds the values present in a project file and presence flags.
type Project struct {
	ConfigVersion string

	NotebooksDir    string
	OutputDir       string
	ParamsPath      string
	Stages          []string
	HasNotebooksDir bool
	HasOutputDir    bool
	HasParamsPath   bool
	HasStages       bool

	Executor Executor
	Params   ParamsSection
	Ledger   Ledger
	Publish  Publish

	HeartbeatSeconds    int
	HasHeartbeatSeconds bool
}

// Executor holds optional executor.* fields.
type Executor struct {
	Command         string
	Kernel          string
	LogOutput       bool
	Args            []string
	Env             map[string]string
	WorkingDir      string
	CaptureMaxBytes int

	HasCommand         bool
	HasKernel          bool
	HasLogOutput       bool
	HasArgs            bool
	HasEnv             bool
	HasWorkingDir      bool
	HasCaptureMaxBytes bool
}

// ParamsSection holds optional params.* fields.
type ParamsSection struct {
	Derive          string
	DeriveTimeoutMs int

	HasDerive          bool
	HasDeriveTimeoutMs bool
}

// Ledger holds optional ledger.* fields.
type Ledger struct {
	Enabled    bool
	Path       string
	HasEnabled bool
	HasPath    bool
}

// Publish holds optional publish.* fields. Credentials are only read from
// the environment.
type Publish struct {
	Endpoint    string
	Bucket      string
	Prefix      string
	Region      string
	UseSSL      bool
	HasEndpoint bool
	HasBucket   bool
	HasPrefix   bool
	HasRegion   bool
	HasUseSSL   bool
}

// ParseProject compiles the CUE file at path and extracts the known fields.
// configVersion is required and must be supported.
func ParseProject(path string) (Project, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Project{}, err
	}
	var p Project
	ok, err := lookupString(v, "configVersion", &p.ConfigVersion)
	if err != nil {
		return Project{}, err
	}
	if err := checkConfigVersion(p.ConfigVersion, ok); err != nil {
		return Project{}, err
	}
	for _, parse := range []func(cue.Value, *Project) error{
		parsePathsSection,
		parseExecutorSection,
		parseParamsSection,
		parseLedgerSection,
		parsePublishSection,
	} {
		if err := parse(v, &p); err != nil {
			return Project{}, err
		}
	}
	return p, nil
}
