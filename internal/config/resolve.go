package config

import (
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/stage"
)

// Source names where the settings came from in configuration errors.
func (s Settings) Source() string {
	if s.ProjectFile != "" {
		return s.ProjectFile
	}
	return "settings"
}

// Parameters loads the parameter document and applies the derivation
// script, if any. Every failure is a *params.ConfigParseError.
func (s Settings) Parameters() (params.Set, error) {
	ps, err := params.Load(s.ParamsPath)
	if err != nil {
		return params.Set{}, err
	}
	if s.DeriveScript == "" {
		return ps, nil
	}
	derived, err := params.Derive(ps, s.DeriveScript, s.DeriveTimeout)
	if err != nil {
		return params.Set{}, params.NewConfigParseError(s.Source(), err)
	}
	return derived, nil
}

// Registry builds the stage registry. An unusable stage name is a
// *params.ConfigParseError.
func (s Settings) Registry() (*stage.Registry, error) {
	reg, err := stage.New(s.Stages...)
	if err != nil {
		return nil, params.NewConfigParseError(s.Source(), err)
	}
	return reg, nil
}
