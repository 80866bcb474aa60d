package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/params"
)

// Settings is the resolved configuration of one nbrun invocation. Paths are
// absolute or relative to the working directory.
type Settings struct {
	Root        string
	ProjectFile string

	NotebooksDir string
	OutputDir    string
	ParamsPath   string
	Stages       []string
	Heartbeat    time.Duration

	Executor ExecutorSettings

	DeriveScript  string
	DeriveTimeout time.Duration

	Ledger  LedgerSettings
	Publish PublishSettings
}

// ExecutorSettings configures the notebook executor.
type ExecutorSettings struct {
	Command         string
	Kernel          string
	LogOutput       bool
	Args            []string
	Env             map[string]string
	WorkingDir      string
	CaptureMaxBytes int
}

// LedgerSettings configures the run history database.
type LedgerSettings struct {
	Enabled bool
	Path    string
}

// PublishSettings configures the artifact bucket.
type PublishSettings struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
	AccessKey string
	SecretKey string
}

// LoadOptions select where settings come from.
type LoadOptions struct {
	// Root is the project root; defaults to ".".
	Root string
	// ConfigPath overrides <root>/nbrun.cue. An explicit path must exist.
	ConfigPath string
	// Flags are bound by name when present, see FlagKeys.
	Flags *pflag.FlagSet
}

// FlagKeys maps command flag names to setting keys.
var FlagKeys = map[string]string{
	"notebooks-dir": KeyNotebooksDir,
	"output-dir":    KeyOutputDir,
	"params":        KeyParamsPath,
	"kernel":        KeyExecutorKernel,
	"executor":      KeyExecutorCommand,
	"ledger-path":   KeyLedgerPath,
	"heartbeat":     KeyHeartbeatSeconds,
	"bucket":        KeyPublishBucket,
	"endpoint":      KeyPublishEndpoint,
}

// Load resolves settings. A project file that cannot be parsed is reported
// as a *params.ConfigParseError.
func Load(opts LoadOptions) (Settings, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	v := viper.New()
	SetDefaults(v)

	s := Settings{Root: root}
	cfgPath := opts.ConfigPath
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = filepath.Join(root, DefaultFileName)
	}
	if _, err := os.Stat(cfgPath); err == nil {
		p, err := ParseProject(cfgPath)
		if err != nil {
			return Settings{}, params.NewConfigParseError(cfgPath, err)
		}
		if err := v.MergeConfigMap(p.settingsMap()); err != nil {
			return Settings{}, params.NewConfigParseError(cfgPath, err)
		}
		s.ProjectFile = cfgPath
		s.Executor.Env = p.Executor.Env
	} else if explicit {
		return Settings{}, params.NewConfigParseError(cfgPath, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	s.NotebooksDir = resolve(root, v.GetString(KeyNotebooksDir))
	s.OutputDir = resolve(root, v.GetString(KeyOutputDir))
	s.ParamsPath = resolve(root, v.GetString(KeyParamsPath))
	s.Stages = v.GetStringSlice(KeyStages)
	s.Heartbeat = time.Duration(v.GetInt(KeyHeartbeatSeconds)) * time.Second

	s.Executor.Command = v.GetString(KeyExecutorCommand)
	s.Executor.Kernel = v.GetString(KeyExecutorKernel)
	s.Executor.LogOutput = v.GetBool(KeyExecutorLogOutput)
	s.Executor.Args = v.GetStringSlice(KeyExecutorArgs)
	s.Executor.CaptureMaxBytes = v.GetInt(KeyExecutorCaptureMax)
	if wd := v.GetString(KeyExecutorWorkingDir); wd != "" {
		s.Executor.WorkingDir = resolve(root, wd)
	}

	s.DeriveScript = v.GetString(KeyParamsDerive)
	s.DeriveTimeout = time.Duration(v.GetInt(KeyParamsDeriveTimeoutMs)) * time.Millisecond

	s.Ledger.Enabled = v.GetBool(KeyLedgerEnabled)
	s.Ledger.Path = resolve(root, v.GetString(KeyLedgerPath))

	s.Publish = PublishSettings{
		Endpoint:  v.GetString(KeyPublishEndpoint),
		Bucket:    v.GetString(KeyPublishBucket),
		Prefix:    v.GetString(KeyPublishPrefix),
		Region:    v.GetString(KeyPublishRegion),
		UseSSL:    v.GetBool(KeyPublishUseSSL),
		AccessKey: v.GetString(KeyPublishAccessKey),
		SecretKey: v.GetString(KeyPublishSecretKey),
	}
	return s, nil
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// settingsMap renders the present project fields as a nested settings map.
func (p Project) settingsMap() map[string]any {
	m := map[string]any{}
	set := func(present bool, key string, val any) {
		if !present {
			return
		}
		parts := strings.Split(key, ".")
		cur := m
		for _, k := range parts[:len(parts)-1] {
			next, ok := cur[k].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[k] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = val
	}
	set(p.HasNotebooksDir, KeyNotebooksDir, p.NotebooksDir)
	set(p.HasOutputDir, KeyOutputDir, p.OutputDir)
	set(p.HasParamsPath, KeyParamsPath, p.ParamsPath)
	set(p.HasStages, KeyStages, p.Stages)
	set(p.HasHeartbeatSeconds, KeyHeartbeatSeconds, p.HeartbeatSeconds)

	e := p.Executor
	set(e.HasCommand, KeyExecutorCommand, e.Command)
	set(e.HasKernel, KeyExecutorKernel, e.Kernel)
	set(e.HasLogOutput, KeyExecutorLogOutput, e.LogOutput)
	set(e.HasArgs, KeyExecutorArgs, e.Args)
	set(e.HasWorkingDir, KeyExecutorWorkingDir, e.WorkingDir)
	set(e.HasCaptureMaxBytes, KeyExecutorCaptureMax, e.CaptureMaxBytes)

	set(p.Params.HasDerive, KeyParamsDerive, p.Params.Derive)
	set(p.Params.HasDeriveTimeoutMs, KeyParamsDeriveTimeoutMs, p.Params.DeriveTimeoutMs)

	set(p.Ledger.HasEnabled, KeyLedgerEnabled, p.Ledger.Enabled)
	set(p.Ledger.HasPath, KeyLedgerPath, p.Ledger.Path)

	pb := p.Publish
	set(pb.HasEndpoint, KeyPublishEndpoint, pb.Endpoint)
	set(pb.HasBucket, KeyPublishBucket, pb.Bucket)
	set(pb.HasPrefix, KeyPublishPrefix, pb.Prefix)
	set(pb.HasRegion, KeyPublishRegion, pb.Region)
	set(pb.HasUseSSL, KeyPublishUseSSL, pb.UseSSL)
	return m
}

// FromFlags loads settings for a command whose flag set carries the
// --root and --config flags.
func FromFlags(fs *pflag.FlagSet) (Settings, error) {
	root, _ := fs.GetString("root")
	cfgPath, _ := fs.GetString("config")
	return Load(LoadOptions{Root: root, ConfigPath: cfgPath, Flags: fs})
}
