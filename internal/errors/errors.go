// Package errors re-exports github.com/cockroachdb/errors for nbrun.
//
// Use it instead of the standard library so wrapped errors keep a stack
// trace and can carry details (for example a failed notebook's stderr tail)
// that are printed with %+v but stay out of the single-line CLI message.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// Hints and details
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)
