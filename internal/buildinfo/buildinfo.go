// Package buildinfo exposes the nbrun build metadata. Values are set with
// -ldflags; Version and Date fall back to the cli package variables.
package buildinfo

import (
	"strings"

	"github.com/flarebyte/nbrun/cli"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
	BuiltBy = ""
)

// Info is the resolved build metadata.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	BuiltBy string `json:"built_by"`
}

// Resolve applies the cli fallbacks and returns the effective metadata.
func Resolve() Info {
	in := Info{Version: Version, Commit: Commit, Date: Date, BuiltBy: BuiltBy}
	if in.Version == "" {
		in.Version = cli.Version
	}
	if in.Version == "" {
		in.Version = "dev"
	}
	if in.Date == "" {
		in.Date = cli.Date
	}
	return in
}

// ShortCommit is the first seven characters of the commit.
func (in Info) ShortCommit() string {
	if len(in.Commit) > 7 {
		return in.Commit[:7]
	}
	return in.Commit
}

// String renders "<version> (commit=<short>, date=<date>)", omitting the
// empty parts.
func (in Info) String() string {
	var extra []string
	if c := in.ShortCommit(); c != "" {
		extra = append(extra, "commit="+c)
	}
	if in.Date != "" {
		extra = append(extra, "date="+in.Date)
	}
	if len(extra) == 0 {
		return in.Version
	}
	return in.Version + " (" + strings.Join(extra, ", ") + ")"
}

// Summary is Resolve().String().
func Summary() string { return Resolve().String() }
