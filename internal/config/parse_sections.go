package config

import "cuelang.org/go/cue"

// parsePathsSection extracts the top-level layout fields.
func parsePathsSection(v cue.Value, p *Project) error {
	var err error
	if p.HasNotebooksDir, err = lookupString(v, "notebooksDir", &p.NotebooksDir); err != nil {
		return err
	}
	if p.HasOutputDir, err = lookupString(v, "outputDir", &p.OutputDir); err != nil {
		return err
	}
	if p.HasParamsPath, err = lookupString(v, "paramsPath", &p.ParamsPath); err != nil {
		return err
	}
	if p.HasStages, err = lookupStringList(v, "stages", &p.Stages); err != nil {
		return err
	}
	p.HasHeartbeatSeconds, err = lookupInt(v, "heartbeatSeconds", &p.HeartbeatSeconds)
	return err
}

// parseExecutorSection extracts optional executor.* fields.
func parseExecutorSection(v cue.Value, p *Project) error {
	e := &p.Executor
	var err error
	if e.HasCommand, err = lookupString(v, "executor.command", &e.Command); err != nil {
		return err
	}
	if e.HasKernel, err = lookupString(v, "executor.kernel", &e.Kernel); err != nil {
		return err
	}
	if e.HasLogOutput, err = lookupBool(v, "executor.logOutput", &e.LogOutput); err != nil {
		return err
	}
	if e.HasArgs, err = lookupStringList(v, "executor.args", &e.Args); err != nil {
		return err
	}
	if e.HasEnv, err = lookupStringMap(v, "executor.env", &e.Env); err != nil {
		return err
	}
	if e.HasWorkingDir, err = lookupString(v, "executor.workingDir", &e.WorkingDir); err != nil {
		return err
	}
	e.HasCaptureMaxBytes, err = lookupInt(v, "executor.captureMaxBytes", &e.CaptureMaxBytes)
	return err
}

// parseParamsSection extracts optional params.* fields.
func parseParamsSection(v cue.Value, p *Project) error {
	var err error
	if p.Params.HasDerive, err = lookupString(v, "params.derive", &p.Params.Derive); err != nil {
		return err
	}
	p.Params.HasDeriveTimeoutMs, err = lookupInt(v, "params.deriveTimeoutMs", &p.Params.DeriveTimeoutMs)
	return err
}

// parseLedgerSection extracts optional ledger.* fields.
func parseLedgerSection(v cue.Value, p *Project) error {
	var err error
	if p.Ledger.HasEnabled, err = lookupBool(v, "ledger.enabled", &p.Ledger.Enabled); err != nil {
		return err
	}
	p.Ledger.HasPath, err = lookupString(v, "ledger.path", &p.Ledger.Path)
	return err
}

// parsePublishSection extracts optional publish.* fields.
func parsePublishSection(v cue.Value, p *Project) error {
	pb := &p.Publish
	var err error
	if pb.HasEndpoint, err = lookupString(v, "publish.endpoint", &pb.Endpoint); err != nil {
		return err
	}
	if pb.HasBucket, err = lookupString(v, "publish.bucket", &pb.Bucket); err != nil {
		return err
	}
	if pb.HasPrefix, err = lookupString(v, "publish.prefix", &pb.Prefix); err != nil {
		return err
	}
	if pb.HasRegion, err = lookupString(v, "publish.region", &pb.Region); err != nil {
		return err
	}
	pb.HasUseSSL, err = lookupBool(v, "publish.useSSL", &pb.UseSSL)
	return err
}
