package config

import (
	"github.com/spf13/viper"

	"github.com/flarebyte/nbrun/internal/executor"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/stage"
)

// Setting keys. Environment variables are NBRUN_ followed by the key in
// upper case with dots replaced by underscores, e.g. NBRUN_EXECUTOR_KERNEL.
const (
	KeyNotebooksDir     = "notebooks_dir"
	KeyOutputDir        = "output_dir"
	KeyParamsPath       = "params_path"
	KeyStages           = "stages"
	KeyHeartbeatSeconds = "heartbeat_seconds"

	KeyExecutorCommand    = "executor.command"
	KeyExecutorKernel     = "executor.kernel"
	KeyExecutorLogOutput  = "executor.log_output"
	KeyExecutorArgs       = "executor.args"
	KeyExecutorWorkingDir = "executor.working_dir"
	KeyExecutorCaptureMax = "executor.capture_max_bytes"

	KeyParamsDerive          = "params.derive"
	KeyParamsDeriveTimeoutMs = "params.derive_timeout_ms"

	KeyLedgerEnabled = "ledger.enabled"
	KeyLedgerPath    = "ledger.path"

	KeyPublishEndpoint  = "publish.endpoint"
	KeyPublishBucket    = "publish.bucket"
	KeyPublishPrefix    = "publish.prefix"
	KeyPublishRegion    = "publish.region"
	KeyPublishUseSSL    = "publish.use_ssl"
	KeyPublishAccessKey = "publish.access_key"
	KeyPublishSecretKey = "publish.secret_key"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "NBRUN"

// SetDefaults configures default values for all settings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyNotebooksDir, "notebooks")
	v.SetDefault(KeyOutputDir, "outputs/notebooks")
	v.SetDefault(KeyParamsPath, "configs/params.yaml")
	v.SetDefault(KeyStages, stage.DefaultNotebooks)
	v.SetDefault(KeyHeartbeatSeconds, 60)

	v.SetDefault(KeyExecutorCommand, executor.DefaultCommand)
	v.SetDefault(KeyExecutorKernel, executor.DefaultKernel)
	v.SetDefault(KeyExecutorLogOutput, true)
	v.SetDefault(KeyExecutorArgs, []string{})
	v.SetDefault(KeyExecutorWorkingDir, "")
	v.SetDefault(KeyExecutorCaptureMax, executor.DefaultCaptureMaxBytes)

	v.SetDefault(KeyParamsDerive, "")
	v.SetDefault(KeyParamsDeriveTimeoutMs, int(params.DefaultDeriveTimeout.Milliseconds()))

	v.SetDefault(KeyLedgerEnabled, true)
	v.SetDefault(KeyLedgerPath, "outputs/nbrun.db")

	v.SetDefault(KeyPublishEndpoint, "")
	v.SetDefault(KeyPublishBucket, "")
	v.SetDefault(KeyPublishPrefix, "nbrun")
	v.SetDefault(KeyPublishRegion, "")
	v.SetDefault(KeyPublishUseSSL, true)
	v.SetDefault(KeyPublishAccessKey, "")
	v.SetDefault(KeyPublishSecretKey, "")
}
