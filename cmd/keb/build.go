package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"keb/internal/driver"
	"keb/internal/ssa"
)

// ArtifactExt is the extension of encoded SSA modules.
const ArtifactExt = ".kebc"

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] [file.keb]",
		Short: "Compile a keb file into an SSA artifact",
		Long: `Compile a keb file and write the validated SSA module, with its type table,
as a msgpack artifact for an external code generator`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBuild,
	}
	cmd.Flags().StringP("output", "o", "", "artifact path (default: <name>"+ArtifactExt+")")
	cmd.Flags().Bool("aggregates", false, "list the aggregate types the module needs")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	g, err := readGlobal(cmd)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	showAggregates, err := cmd.Flags().GetBool("aggregates")
	if err != nil {
		return fmt.Errorf("failed to get aggregates flag: %w", err)
	}
	tgt, err := resolveTarget(cmd, args, &g)
	if err != nil {
		return err
	}
	path := tgt.files[0]
	if output == "" {
		output = defaultArtifactPath(path, tgt)
	}

	res, err := compileOne(cmd.Context(), cmd, path, driver.StageSSA, g)
	if err != nil {
		return err
	}
	res.Measure("encode", func() string {
		err = writeArtifact(output, res.Module)
		return ""
	})
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	aggs := ssa.Aggregates(res.Module)
	if showAggregates {
		for _, t := range aggs {
			fmt.Fprintln(stdout, res.Types.Format(t))
		}
	}
	if !g.quiet {
		fmt.Fprintf(stdout, "built %s (%d blocks, %d aggregates)\n", output, res.Module.NumBlocks(), len(aggs))
	}
	if g.timings {
		fmt.Fprint(cmd.ErrOrStderr(), res.Timer.Summary())
	}
	return nil
}

func defaultArtifactPath(src string, tgt target) string {
	if tgt.manifest != nil {
		return filepath.Join(tgt.manifest.Root, tgt.manifest.Name+ArtifactExt)
	}
	return strings.TrimSuffix(src, filepath.Ext(src)) + ArtifactExt
}

func writeArtifact(path string, m *ssa.Module) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := ssa.Encode(f, m); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}
