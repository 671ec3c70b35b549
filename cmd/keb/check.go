package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"keb/internal/driver"
	"keb/internal/pipeline"
	"keb/internal/source"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] [file.keb|directory]...",
		Short: "Report diagnostics for keb source files",
		Long: `Parse, type and lower keb files without running them. Directories are
searched for *.keb files; without arguments the main file of keb.toml is checked.`,
		RunE: runCheck,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().String("stage", "ssa", "last stage to run (syntax|sem|infer|ssa)")
	cmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().String("ui", "auto", "progress UI for several files (auto|on|off)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	g, err := readGlobal(cmd)
	if err != nil {
		return err
	}
	ropts, err := readReportFlags(cmd)
	if err != nil {
		return err
	}
	stageStr, err := cmd.Flags().GetString("stage")
	if err != nil {
		return fmt.Errorf("failed to get stage flag: %w", err)
	}
	stage, err := driver.ParseStage(stageStr)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	tgt, err := resolveTarget(cmd, args, &g)
	if err != nil {
		return err
	}
	files, err := pipeline.CollectFiles(tgt.files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", pipeline.SourceExt)
	}
	if jobs == 0 && tgt.manifest != nil {
		jobs = tgt.manifest.Jobs
	}

	req := pipeline.Request{
		Options: driver.Options{
			StopAfter:      stage,
			MaxDiagnostics: g.maxDiagnostics,
			EnableTimings:  g.timings,
		},
		Jobs: jobs,
	}
	var results []pipeline.FileResult
	if len(files) > 1 && ropts.format == "pretty" && shouldUseTUI(mode, cmd.OutOrStdout()) {
		results, err = runCheckWithUI(cmd.Context(), "checking", files, req)
	} else {
		results, err = pipeline.CheckFiles(cmd.Context(), files, req)
	}
	if err != nil {
		return err
	}
	return reportCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, ropts, g)
}

func reportCheck(stdout, stderr io.Writer, results []pipeline.FileResult, ropts reportOptions, g globalOptions) error {
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
		if r.Err != nil {
			fmt.Fprintf(stderr, "error: %v\n", r.Err)
			continue
		}
		out := stderr
		if ropts.format == "json" {
			out = stdout
		}
		if err := printDiagnostics(out, r.Result, ropts, g); err != nil {
			return err
		}
		if g.timings && ropts.format == "pretty" && r.Result.Timer != nil && r.Result.Timer.Len() > 0 {
			fmt.Fprintf(stderr, "%s\n%s", r.Path, r.Result.Timer.Summary())
		}
	}
	if !g.quiet && ropts.format == "pretty" {
		fmt.Fprintf(stdout, "checked %d %s, %d with errors\n", len(results), plural(len(results), "file"), failed)
	}
	if failed > 0 {
		return errFailed
	}
	return nil
}

func readReportFlags(cmd *cobra.Command) (reportOptions, error) {
	var ropts reportOptions
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return ropts, fmt.Errorf("failed to get format flag: %w", err)
	}
	ropts.format = strings.ToLower(format)
	if ropts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return ropts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if ropts.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return ropts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	return ropts, ropts.validate()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// compileOne compiles the single target file of dump, run and build, printing
// diagnostics to stderr.
func compileOne(ctx context.Context, cmd *cobra.Command, path string, stage driver.Stage, g globalOptions) (*driver.Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return compileLoaded(ctx, cmd, fs, id, stage, g)
}

func compileLoaded(ctx context.Context, cmd *cobra.Command, fs *source.FileSet, id source.FileID, stage driver.Stage, g globalOptions) (*driver.Result, error) {
	res, err := driver.Compile(ctx, fs, id, driver.Options{
		StopAfter:      stage,
		MaxDiagnostics: g.maxDiagnostics,
		EnableTimings:  g.timings,
	})
	if err != nil {
		return res, err
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), res, reportOptions{format: "pretty"}, g); err != nil {
		return res, err
	}
	if res.Failed() {
		return res, errFailed
	}
	return res, nil
}
