package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"keb/internal/ast"
	"keb/internal/driver"
	"keb/internal/sem"
	"keb/internal/ssa"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [flags] [file.keb]",
		Short: "Print an intermediate representation",
		Long:  `Print the syntax tree (ast), the typed semantic graph (sem) or the SSA module (ssa) of a keb file`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDump,
	}
	cmd.Flags().String("ir", "ssa", "representation to print (ast|sem|ssa)")
	return cmd
}

func runDump(cmd *cobra.Command, args []string) error {
	g, err := readGlobal(cmd)
	if err != nil {
		return err
	}
	ir, err := cmd.Flags().GetString("ir")
	if err != nil {
		return fmt.Errorf("failed to get ir flag: %w", err)
	}
	var stage driver.Stage
	switch strings.ToLower(ir) {
	case "ast":
		stage = driver.StageSyntax
	case "sem":
		stage = driver.StageInfer
	case "ssa":
		stage = driver.StageSSA
	default:
		return fmt.Errorf("unknown ir %q (expected ast|sem|ssa)", ir)
	}

	tgt, err := resolveTarget(cmd, args, &g)
	if err != nil {
		return err
	}
	res, err := compileOne(cmd.Context(), cmd, tgt.files[0], stage, g)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch stage {
	case driver.StageSyntax:
		return ast.Dump(out, res.Tree)
	case driver.StageInfer:
		return sem.Dump(out, res.Graph)
	default:
		return ssa.Dump(out, res.Module, ssa.DumpOptions{Color: g.color && isTerminal(out)})
	}
}
