// Package quality provides data quality commands: checking records and
// working the steward queue.
package quality

import (
	"github.com/spf13/cobra"

	"github.com/ledgerline/mdm"
	"github.com/ledgerline/mdm/internal/appcontext"
	"github.com/ledgerline/mdm/internal/cmd/cmdutil"
	"github.com/ledgerline/mdm/internal/cmd/output"
	"github.com/ledgerline/mdm/internal/cmd/table"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/stewardship"
)

// NewCommand creates the quality command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quality",
		GroupID: "stewardship",
		Aliases: []string{"dq"},
		Short:   "Check data quality and work the steward queue",
		Example: `  mdm quality check                   # Check every unmerged record
  mdm quality check a-1 a-2           # Check specific records
  mdm quality queue --severity high   # Show high severity work`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCheckCommand(app))
	cmd.AddCommand(newQueueCommand(app))
	return cmd
}

func newCheckCommand(app appcontext.Interface) *cobra.Command {
	var typeFlags *cmdutil.TypeFlags
	cmd := &cobra.Command{
		Use:   "check [record-id...]",
		Short: "Check records, store DQ scores and queue new issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				rt, err := typeFlags.Single()
				if err != nil {
					return err
				}
				recs, err := client.Store().Records(cmd.Context(), rt)
				if err != nil {
					return err
				}
				for _, r := range recs {
					if !r.IsMerged() {
						ids = append(ids, r.ID)
					}
				}
			}

			results := make([]*mdm.QualityResult, 0, len(ids))
			checks := make([]stewardship.Check, 0, len(ids))
			scores := make(map[string]int, len(ids))
			for _, id := range ids {
				res, err := client.CheckQuality(cmd.Context(), id)
				if err != nil {
					return err
				}
				results = append(results, res)
				checks = append(checks, res.Check)
				scores[id] = res.DQScore
			}
			if err := app.Save(cmd.Context()); err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), results, func(wide bool) table.Data {
				return table.ChecksToTableData(checks, scores, wide)
			})
		},
	}
	typeFlags = cmdutil.AddTypeFlags(cmd)
	return cmd
}

func newQueueCommand(app appcontext.Interface) *cobra.Command {
	var status, severity string
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the steward queue in work order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			items, err := client.Queue(cmd.Context())
			if err != nil {
				return err
			}
			filtered := make([]*records.QueueItem, 0, len(items))
			for _, q := range items {
				if status != "" && string(q.Status) != status {
					continue
				}
				if severity != "" && string(q.Severity) != severity {
					continue
				}
				filtered = append(filtered, q)
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), filtered, func(wide bool) table.Data {
				return table.QueueToTableData(filtered, wide)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: open, assigned, resolved")
	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity: critical, high, medium, low")
	return cmd
}
