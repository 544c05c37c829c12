package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/designorch/internal/design"
	"github.com/fyrsmithlabs/designorch/internal/orchestrator"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

type runFlags struct {
	documentation bool
	code          bool
	reasoning     bool
	optimization  bool
	all           bool
	framework     string
	priority      string
	mode          string
	maxConcurrent int
	output        string
	compact       bool
}

func (f *runFlags) requirements() task.Requirements {
	if f.all {
		return task.Requirements{Documentation: true, Code: true, Reasoning: true, Optimization: true}
	}
	return task.Requirements{
		Documentation: f.documentation,
		Code:          f.code,
		Reasoning:     f.reasoning,
		Optimization:  f.optimization,
	}
}

func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <design-file>",
		Short: "Process a design file and print the aggregated result",
		Long: `Process a design file (YAML, TOML or JSON; "-" reads JSON from stdin)
and print the aggregated result as JSON.

Examples:
  # Documentation and code for a React target
  designorch run checkout.yaml --documentation --code --framework react

  # Every category, one task at a time
  designorch run checkout.toml --all --mode sequential

  # Write the result to a file
  designorch run checkout.json --all -o result.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesign(cmd.Context(), cmd.OutOrStdout(), root, flags, args[0])
		},
	}

	cmd.Flags().BoolVar(&flags.documentation, "documentation", false, "produce documentation")
	cmd.Flags().BoolVar(&flags.code, "code", false, "produce generated code")
	cmd.Flags().BoolVar(&flags.reasoning, "reasoning", false, "produce design reasoning")
	cmd.Flags().BoolVar(&flags.optimization, "optimization", false, "produce optimization suggestions")
	cmd.Flags().BoolVar(&flags.all, "all", false, "request every category")
	cmd.Flags().StringVar(&flags.framework, "framework", "", "target framework for code generation (default react)")
	cmd.Flags().StringVar(&flags.priority, "priority", "", "task priority: high, medium or low")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "execution mode: parallel or sequential (default from config)")
	cmd.Flags().IntVar(&flags.maxConcurrent, "max-concurrent", 0, "parallel task limit (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "print compact JSON")
	return cmd
}

func runDesign(ctx context.Context, stdout io.Writer, root *rootFlags, flags *runFlags, path string) error {
	d, err := design.LoadFile(path)
	if err != nil {
		return err
	}

	a, err := bootstrap(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	mode := flags.mode
	if mode == "" {
		mode = a.cfg.Orchestrator.Mode
	}
	opts := task.Options{
		TargetFramework: flags.framework,
		Priority:        flags.priority,
		Mode:            task.ExecutionMode(mode),
		MaxConcurrent:   flags.maxConcurrent,
	}

	result := a.orch.ProcessDesignSpec(ctx, d, flags.requirements(), opts)

	out := stdout
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeResult(out, result, !flags.compact); err != nil {
		return err
	}
	if !result.Success {
		return errRunFailed
	}
	return nil
}

func writeResult(w io.Writer, result *orchestrator.Result, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
