package version

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/flarebyte/nbrun/internal/buildinfo"
)

var (
	flagShort bool
	flagJSON  bool
)

type report struct {
	buildinfo.Info
	Go        string `json:"go"`
	GoOS      string `json:"go_os"`
	GoArch    string `json:"go_arch"`
	Timestamp string `json:"timestamp"`
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nbrun version",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := buildinfo.Resolve()
		if flagShort || !flagJSON {
			_, err := fmt.Fprintf(os.Stdout, "nbrun %s\n", in)
			return err
		}

		// JSON goes to stdout and a human friendly line to stderr.
		_, _ = fmt.Fprintf(os.Stderr, "nbrun version: %s\n", in)
		return encodeJSON(os.Stdout, report{
			Info:      in,
			Go:        runtime.Version(),
			GoOS:      runtime.GOOS,
			GoArch:    runtime.GOARCH,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
