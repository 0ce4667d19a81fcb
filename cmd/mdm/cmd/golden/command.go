// Package golden provides commands for inspecting and rebuilding golden
// records.
package golden

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline/mdm/internal/appcontext"
	"github.com/ledgerline/mdm/internal/cmd/cmdutil"
	"github.com/ledgerline/mdm/internal/cmd/output"
	"github.com/ledgerline/mdm/internal/cmd/table"
	"github.com/ledgerline/mdm/pkg/differ"
	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/golden"
	"github.com/ledgerline/mdm/pkg/provenance"
	"github.com/ledgerline/mdm/pkg/records"
)

// NewCommand creates the golden command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "golden",
		GroupID: "core",
		Aliases: []string{"records"},
		Short:   "Inspect and rebuild golden records",
		Example: `  mdm golden list --type asset        # List asset records
  mdm golden show p-1                 # Show golden values of a record
  mdm golden explain p-1 'address.*'  # Show why each address field won
  mdm golden rebuild --all            # Recompute every golden record
  mdm golden compare p-1 p-2          # Line up two records`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newExplainCommand(app))
	cmd.AddCommand(newRebuildCommand(app))
	cmd.AddCommand(newCompareCommand(app))
	return cmd
}

func newListCommand(app appcontext.Interface) *cobra.Command {
	var typeFlags *cmdutil.TypeFlags
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List golden records",
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
			recs, err := client.Store().Records(cmd.Context(), rt)
			if err != nil {
				return err
			}
			filtered := make([]*records.Record, 0, len(recs))
			for _, r := range recs {
				if status == "" || string(r.Status) == status {
					filtered = append(filtered, r)
				}
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), filtered, func(wide bool) table.Data {
				return table.RecordsToTableData(filtered, wide)
			})
		},
	}
	typeFlags = cmdutil.AddTypeFlags(cmd)
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: active, inactive, merged, pending_review")
	return cmd
}

func newShowCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show the golden values of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			rec, err := client.Store().Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), rec, func(wide bool) table.Data {
				return table.RecordToTableData(rec, wide)
			})
		},
	}
}

// newExplainCommand replays survivorship for a record without storing the
// result and prints the decision behind every field. With --history the
// decisions are appended to a provenance file so earlier runs show up too.
func newExplainCommand(app appcontext.Interface) *cobra.Command {
	var historyFile string
	var report bool
	cmd := &cobra.Command{
		Use:   "explain <record-id> [field-pattern...]",
		Short: "Explain which source won each golden field",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			rec, err := client.Store().Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tracker := provenance.NewTracker(true)
			if historyFile != "" {
				if err := loadHistory(tracker, historyFile); err != nil {
					return err
				}
			}
			golden.NewBuilder(client.Rules().RuleSet(rec.RecordType),
				golden.WithTracker(tracker),
				golden.WithLogger(app.Logger()),
			).Rebuild(rec)

			if historyFile != "" {
				if err := saveHistory(tracker, historyFile); err != nil {
					return err
				}
			}

			if report {
				_, err := fmt.Fprint(cmd.OutOrStdout(), provenance.GenerateReport(tracker.Map()).String())
				return err
			}

			fields := tracker.FindByRecord(rec.RecordType, rec.ID)
			patterns := args[1:]
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), fields, func(bool) table.Data {
				return table.ProvenanceToTableData(fields, patterns, time.Now())
			})
		},
	}
	cmd.Flags().StringVar(&historyFile, "history", "", "Provenance file to read earlier decisions from and append to")
	cmd.Flags().BoolVar(&report, "report", false, "Print a plain-text provenance report instead of a table")
	return cmd
}

func loadHistory(tracker provenance.Tracker, path string) error {
	pf, err := provenance.Load(path)
	if err != nil || pf == nil {
		return err
	}
	for key, entries := range pf.Provenance {
		parts := strings.SplitN(key, ":", 3)
		if len(parts) != 3 {
			continue
		}
		for _, e := range entries {
			tracker.Track(records.RecordType(parts[0]), parts[1], parts[2], e)
		}
	}
	return nil
}

func saveHistory(tracker provenance.Tracker, path string) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := provenance.Write(f, tracker.Map()); err != nil {
		_ = f.Close()
		return err
	}
	return errors.WrapIO("close", path, f.Close())
}

func newRebuildCommand(app appcontext.Interface) *cobra.Command {
	var typeFlags *cmdutil.TypeFlags
	var all, changes bool
	var ignore []string
	cmd := &cobra.Command{
		Use:   "rebuild [record-id...]",
		Short: "Recompute golden values from source snapshots",
		Long: `Rebuild reruns survivorship over each record's snapshots and overrides
and stores records whose golden values changed. Merged records are skipped
when rebuilding everything. With --changes the output is the field-level
changeset instead of the rebuilt records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.NewValidationError("record-id", nil, "give record ids or --all")
			}
			client, err := app.Client()
			if err != nil {
				return err
			}

			ids := args
			if all {
				rt, err := typeFlags.Single()
				if err != nil {
					return err
				}
				recs, err := client.Store().Records(cmd.Context(), rt)
				if err != nil {
					return err
				}
				ids = nil
				for _, r := range recs {
					if !r.IsMerged() {
						ids = append(ids, r.ID)
					}
				}
			}

			before := make([]*records.Record, 0, len(ids))
			rebuilt := make([]*records.Record, 0, len(ids))
			for _, id := range ids {
				old, err := client.Store().Record(cmd.Context(), id)
				if err != nil {
					return err
				}
				rec, _, err := client.RebuildGolden(cmd.Context(), id)
				if err != nil {
					return err
				}
				before = append(before, old)
				rebuilt = append(rebuilt, rec)
			}
			if err := app.Save(cmd.Context()); err != nil {
				return err
			}

			if changes {
				cs := differ.New(differ.WithIgnoredFields(ignore...)).Records(before, rebuilt)
				return output.Write(cmd.OutOrStdout(), app.OutputFormat(), cs, func(wide bool) table.Data {
					return table.ChangesetToTableData(cs, wide)
				})
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), rebuilt, func(wide bool) table.Data {
				return table.RecordsToTableData(rebuilt, wide)
			})
		},
	}
	typeFlags = cmdutil.AddTypeFlags(cmd)
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Rebuild every record (of --type, if given)")
	cmd.Flags().BoolVar(&changes, "changes", false, "Print the field-level changeset instead of the records")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Fields left out of the changeset")
	return cmd
}

func newCompareCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <record-id> <record-id>",
		Short: "Line up two records field by field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			cmp, err := client.Compare(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), cmp, func(wide bool) table.Data {
				return table.ComparisonToTableData(cmp, wide)
			})
		},
	}
}
