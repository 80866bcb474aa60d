package config

import (
	"slices"
	"strings"

	"github.com/flarebyte/nbrun/internal/errors"
)

// CurrentConfigVersion is the configVersion written by new nbrun.cue files.
const CurrentConfigVersion = "1"

// SupportedConfigVersions lists the configVersion values nbrun can read.
var SupportedConfigVersions = []string{CurrentConfigVersion}

// checkConfigVersion rejects a project file without configVersion or with a
// version this build does not understand.
func checkConfigVersion(v string, present bool) error {
	if !present {
		return errors.New("missing required field: configVersion")
	}
	if !slices.Contains(SupportedConfigVersions, v) {
		return errors.Newf("unsupported configVersion: %q (supported: %s)",
			v, strings.Join(SupportedConfigVersions, ", "))
	}
	return nil
}
