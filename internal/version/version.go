package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Version information for the keb CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each numeric part in its own color. Suffixes
// such as "-dev" stay plain. color.NoColor turns coloring off.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Long is the text printed by `keb version`.
func Long() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "keb %s", Colored())
	if GitCommit != "" {
		fmt.Fprintf(&sb, "\ncommit: %s", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&sb, "\nbuilt:  %s", BuildDate)
	}
	return sb.String()
}
