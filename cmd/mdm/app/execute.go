package app

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerline/mdm/cmd/mdm/cmd/duplicates"
	"github.com/ledgerline/mdm/cmd/mdm/cmd/golden"
	"github.com/ledgerline/mdm/cmd/mdm/cmd/merge"
	"github.com/ledgerline/mdm/cmd/mdm/cmd/quality"
	"github.com/ledgerline/mdm/internal/cmd/completion"
	"github.com/ledgerline/mdm/internal/cmd/output"
)

// Execute runs the mdm CLI application with the given arguments.
// A --config flag is honoured before the other flags are parsed.
func (a *App) Execute(ctx context.Context, args []string) error {
	if path := configFlag(args); path != "" {
		config, err := LoadConfigFile(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "mdm",
		Short:   "Master data management for golden records",
		Version: a.version,
		Long: `mdm keeps golden records for people, legal entities, accounts and
assets consistent across source systems.

It finds likely duplicates, rebuilds golden values from source snapshots
using survivorship rules, runs steward-approved merges and flags data
quality issues into a work queue. All state lives in one YAML dataset.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "stewardship", Title: "Stewardship Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is ./.mdm.yaml or $HOME/.mdm.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml, wide")
	flags.StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVar(&a.config.DataPath, "data", a.config.DataPath, "dataset file to read and update")
	flags.StringVar(&a.config.RulesPath, "rules", a.config.RulesPath, "rules file layered under the dataset's own rules")
	flags.StringVar(&a.config.Actor, "actor", a.config.Actor, "user recorded on jobs and audit events")
	flags.BoolVar(&a.config.DryRun, "dry-run", false, "run commands without writing the dataset")

	rootCmd.SetVersionTemplate("mdm {{.Version}}\n")
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	if _, err := output.ParseFormat(format); err != nil {
		return err
	}
	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)
	if a.config.Format == "" {
		a.config.Format = string(output.DetectFormat(""))
	}

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(duplicates.NewCommand(a))
	rootCmd.AddCommand(golden.NewCommand(a))
	rootCmd.AddCommand(merge.NewCommand(a))
	rootCmd.AddCommand(quality.NewCommand(a))
	rootCmd.AddCommand(completion.NewCommand())
	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mdm version %s\n", a.version)
			fmt.Fprintf(w, "commit: %s\n", a.commit)
			fmt.Fprintf(w, "built: %s\n", a.date)
			fmt.Fprintf(w, "built by: %s\n", a.builtBy)
			fmt.Fprintf(w, "go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// configFlag finds the value of --config in raw arguments.
func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
