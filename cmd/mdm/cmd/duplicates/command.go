// Package duplicates provides commands for finding and triaging duplicate
// golden records.
package duplicates

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/mdm/internal/appcontext"
	"github.com/ledgerline/mdm/internal/cmd/cmdutil"
	"github.com/ledgerline/mdm/internal/cmd/output"
	"github.com/ledgerline/mdm/internal/cmd/table"
	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/matching"
	"github.com/ledgerline/mdm/pkg/records"
)

// NewCommand creates the duplicates command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "duplicates",
		GroupID: "core",
		Aliases: []string{"dup", "dups"},
		Short:   "Find and triage duplicate records",
		Example: `  mdm duplicates find --type person        # Score candidate pairs without saving
  mdm duplicates refresh                    # Update the duplicate worklist for every type
  mdm duplicates list --status open         # Show open duplicates
  mdm duplicates ignore d-17 --reason twins # Mark a pair as not a match`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newFindCommand(app))
	cmd.AddCommand(newRefreshCommand(app))
	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newIgnoreCommand(app))
	return cmd
}

func newFindCommand(app appcontext.Interface) *cobra.Command {
	var typeFlags *cmdutil.TypeFlags
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Score candidate duplicate pairs without saving them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types, err := typeFlags.Types()
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			var all []matching.Result
			for _, rt := range types {
				results, err := client.FindCandidates(cmd.Context(), rt)
				if err != nil {
					return err
				}
				all = append(all, results...)
			}
			if all == nil {
				all = []matching.Result{}
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), all, func(wide bool) table.Data {
				return table.MatchesToTableData(all, wide)
			})
		},
	}
	typeFlags = cmdutil.AddTypeFlags(cmd)
	return cmd
}

func newRefreshCommand(app appcontext.Interface) *cobra.Command {
	var typeFlags *cmdutil.TypeFlags
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Store new duplicates and rescore open ones",
		Long: `Refresh scans each record type and reconciles the results with the
stored duplicates. Unseen pairs become open duplicates; ignored and merged
duplicates are never reopened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types, err := typeFlags.Types()
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			var changed []*records.Duplicate
			var results []any
			for _, rt := range types {
				res, err := client.RefreshDuplicates(cmd.Context(), rt)
				if err != nil {
					return err
				}
				changed = append(changed, res.Created...)
				changed = append(changed, res.Updated...)
				results = append(results, res)
			}
			if err := app.Save(cmd.Context()); err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), results, func(wide bool) table.Data {
				return table.DuplicatesToTableData(changed, wide)
			})
		},
	}
	typeFlags = cmdutil.AddTypeFlags(cmd)
	return cmd
}

func newListCommand(app appcontext.Interface) *cobra.Command {
	var typeFlags *cmdutil.TypeFlags
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored duplicates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := typeFlags.Single()
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			dups, err := client.Store().Duplicates(cmd.Context(), rt)
			if err != nil {
				return err
			}
			filtered := make([]*records.Duplicate, 0, len(dups))
			for _, d := range dups {
				if status == "" || string(d.Status) == status {
					filtered = append(filtered, d)
				}
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), filtered, func(wide bool) table.Data {
				return table.DuplicatesToTableData(filtered, wide)
			})
		},
	}
	typeFlags = cmdutil.AddTypeFlags(cmd)
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: open, ignored, merge_in_progress, merged")
	return cmd
}

func newIgnoreCommand(app appcontext.Interface) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "ignore <duplicate-id>",
		Short: "Mark a duplicate as not a real match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reason == "" {
				return errors.NewValidationError("reason", nil, "--reason is required")
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			d, err := client.IgnoreDuplicate(cmd.Context(), args[0], app.Actor(), reason)
			if err != nil {
				return err
			}
			if err := app.Save(cmd.Context()); err != nil {
				return err
			}
			if output.Format(app.OutputFormat()).IsTable() {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Ignored duplicate %s (%s ~ %s)\n", d.ID, d.IDA, d.IDB)
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), d, nil)
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Why the records are not the same (required)")
	return cmd
}
