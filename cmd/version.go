package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped with -ldflags "-X .../cmd.version=v1.2.3". Without it
// the module version from the build info is used.
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the quizgen build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info, _ := debug.ReadBuildInfo()
		_, err := fmt.Fprintln(cmd.OutOrStdout(), versionLine(version, info))
		return err
	},
}

// versionLine formats the stamped version, falling back to the build info's
// module version and VCS revision.
func versionLine(stamped string, info *debug.BuildInfo) string {
	v, rev := stamped, ""
	if info != nil {
		if v == "" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				rev = s.Value[:7]
			}
		}
	}
	if v == "" {
		v = "(devel)"
	}
	line := fmt.Sprintf("quizgen %s (%s/%s, %s)", v, runtime.GOOS, runtime.GOARCH, runtime.Version())
	if rev != "" {
		line += " rev " + rev
	}
	return line
}
