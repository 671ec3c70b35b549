package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"keb/internal/driver"
	"keb/internal/source"
	"keb/internal/ssa"
	"keb/internal/vm"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [file.keb]",
		Short: "Compile and execute a keb program",
		Long:  `Compile a keb source file to SSA and execute its main function in the VM`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExecution,
	}
	cmd.Flags().Int("max-steps", 10_000_000, "instruction budget (0=unlimited)")
	cmd.Flags().Bool("vm-trace", false, "print every executed instruction to stderr")
	cmd.Flags().Bool("cache", false, "reuse compiled modules from the disk cache")
	return cmd
}

func runExecution(cmd *cobra.Command, args []string) error {
	g, err := readGlobal(cmd)
	if err != nil {
		return err
	}
	vmTrace, err := cmd.Flags().GetBool("vm-trace")
	if err != nil {
		return fmt.Errorf("failed to get vm-trace flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	tgt, err := resolveTarget(cmd, args, &g)
	if err != nil {
		return err
	}
	steps, err := maxSteps(cmd, tgt)
	if err != nil {
		return err
	}

	var (
		m   *ssa.Module
		res *driver.Result
	)
	if useCache {
		m, res, err = compileCached(cmd, tgt.files[0], g)
	} else {
		res, err = compileOne(cmd.Context(), cmd, tgt.files[0], driver.StageSSA, g)
		if res != nil {
			m = res.Module
		}
	}
	if err != nil {
		return err
	}

	opts := vm.Options{Stdout: cmd.OutOrStdout(), MaxSteps: steps}
	if vmTrace {
		opts.Trace = cmd.ErrOrStderr()
	}
	var runErr error
	run := func() string {
		runErr = vm.Run(cmd.Context(), m, opts)
		return ""
	}
	if res != nil {
		res.Measure("run", run)
	} else {
		run()
	}
	if res != nil && g.timings && res.Timer != nil && res.Timer.Len() > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), res.Timer.Summary())
	}

	var vmErr *vm.Error
	if errors.As(runErr, &vmErr) {
		fmt.Fprintln(cmd.ErrOrStderr(), vmErr.WithBacktrace())
		return errFailed
	}
	return runErr
}

// compileCached looks the source hash up in the disk cache and compiles only
// on a miss. A cache hit returns a nil Result.
func compileCached(cmd *cobra.Command, path string, g globalOptions) (*ssa.Module, *driver.Result, error) {
	cache, err := driver.OpenDiskCache("keb")
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, nil, err
	}
	key := driver.CacheKey(fs.Get(id).Hash)
	if m, ok, err := cache.Get(key); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignoring cache entry: %v\n", err)
	} else if ok {
		return m, nil, nil
	}

	res, err := compileLoaded(cmd.Context(), cmd, fs, id, driver.StageSSA, g)
	if err != nil {
		return nil, res, err
	}
	if err := cache.Put(key, path, res.Module); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache not updated: %v\n", err)
	}
	return res.Module, res, nil
}
