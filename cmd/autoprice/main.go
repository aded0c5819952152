package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := notifyContext(context.Background())
	err := run(ctx, os.Args[1:], DefaultEnv())
	stop()

	printError(os.Stderr, err)
	os.Exit(exitCodeFor(err))
}

// run executes the command line in args.
func run(ctx context.Context, args []string, env *Environment) error {
	cmd := newRootCommand(env)
	cmd.SetArgs(args)
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(env *Environment) *cobra.Command {
	var common commonFlags

	root := &cobra.Command{
		Use:           "autoprice",
		Short:         "Generate printable price-list PDFs from a spreadsheet and a DOCX template",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setMaxProcs(common.verbose, env.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addCommonFlags(root.PersistentFlags(), &common)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	root.AddCommand(newRunCommand(env, &common))
	root.AddCommand(newCheckCommand(env, &common))
	root.AddCommand(newToolsCommand(env, &common))
	root.AddCommand(newHistoryCommand(env, &common))
	root.AddCommand(newConfigCommand(env, &common))
	root.AddCommand(newVersionCommand(env))

	return root
}

// setMaxProcs configures GOMAXPROCS with conditional logging.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(verbose bool, w io.Writer) {
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(w, format+"\n", args...)
		}))
		return
	}
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}

func newVersionCommand(env *Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(env.Stdout, "autoprice %s\n", Version)
			return nil
		},
	}
}
