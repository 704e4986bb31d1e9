package cmd

import (
	"github.com/grovetools/ludics/cli"
	"github.com/grovetools/ludics/pkg/profiling"
	"github.com/grovetools/ludics/version"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the ludics command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"ludics",
		"Track AI coding agent sessions across tmux, ttyd, Codex and Claude Code",
	)
	root.SilenceUsage = true
	root.SilenceErrors = true

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(root)
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cli.ApplyVerbose(cmd)
		return profiler.PreRun(cmd, args)
	}
	root.PersistentPostRun = profiler.PostRun

	info := version.GetInfo()
	cli.SetVersionTemplate(root, info)

	root.AddCommand(
		NewSessionsCmd(),
		NewConfigCmd(),
		NewPathsCmd(),
		NewLogsCmd(),
		cli.NewVersionCommand("ludics", info),
	)
	cli.ApplyStyledHelpRecursive(root)
	return root
}
