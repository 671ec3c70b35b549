package main

import (
	"fmt"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keb/internal/project"
)

type globalOptions struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	// baseDir anchors relative paths in diagnostics; empty means the
	// working directory.
	baseDir string
}

func readColorMode(value string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "auto", "on", "off":
		return v, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// applyColorFlag sets color.NoColor for everything printed through fatih/color.
func applyColorFlag(cmd *cobra.Command) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
}

func readGlobal(cmd *cobra.Command) (globalOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var opts globalOptions

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readColorMode(colorFlag)
	if err != nil {
		return opts, err
	}
	opts.color = mode == "on" || (mode == "auto" && isTerminal(cmd.ErrOrStderr()))

	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return opts, nil
}

const noManifestMessage = "no keb.toml found\nplease specify the file explicitly, e.g.:\n  keb run path/to/main.keb"

// target is what a command works on: explicit arguments or, without them,
// the manifest found above the working directory.
type target struct {
	files    []string
	manifest *project.Manifest
}

// Diagnostics for files inside a project are reported relative to its root.
func resolveTarget(cmd *cobra.Command, args []string, opts *globalOptions) (target, error) {
	wd, err := os.Getwd()
	if err != nil {
		return target{}, err
	}
	if len(args) > 0 {
		root, ok, err := project.FindProjectRoot(wd)
		if err != nil {
			return target{}, err
		}
		if ok {
			opts.baseDir = root
		}
		return target{files: args}, nil
	}
	path, ok, err := project.FindManifest(wd)
	if err != nil {
		return target{}, err
	}
	if !ok {
		return target{}, fmt.Errorf("%s", noManifestMessage)
	}
	m, err := project.LoadManifest(path)
	if err != nil {
		return target{}, err
	}
	if !cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		opts.maxDiagnostics = m.MaxDiagnostics
	}
	opts.baseDir = m.Root
	return target{files: []string{m.Main}, manifest: m}, nil
}

// maxSteps picks the step limit: an explicit flag wins over the manifest.
func maxSteps(cmd *cobra.Command, t target) (int, error) {
	steps, err := cmd.Flags().GetInt("max-steps")
	if err != nil {
		return 0, fmt.Errorf("failed to get max-steps flag: %w", err)
	}
	if cmd.Flags().Changed("max-steps") || t.manifest == nil {
		return steps, nil
	}
	return safecast.Conv[int](t.manifest.MaxSteps)
}
