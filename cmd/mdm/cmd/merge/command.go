// Package merge provides commands for the merge job lifecycle: plan,
// submit, apply and cancel.
package merge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/mdm/internal/appcontext"
	"github.com/ledgerline/mdm/internal/cmd/output"
	"github.com/ledgerline/mdm/internal/cmd/table"
	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/merge"
	"github.com/ledgerline/mdm/pkg/records"
)

// NewCommand creates the merge command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "merge",
		GroupID: "stewardship",
		Short:   "Plan, approve and apply record merges",
		Long: `Merges fold one or more secondary records into a primary record.

A merge is planned as a draft job, submitted for approval and then applied
by an approver. Applying writes the new golden record, retires the
secondaries and records the audit trail in one step.`,
		Example: `  mdm merge plan p-1 p-2 --submit   # Plan and submit a merge of p-2 into p-1
  mdm merge apply job-9 --actor bob # Approve and apply it
  mdm merge list --status pending_approval`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newPlanCommand(app))
	cmd.AddCommand(newSubmitCommand(app))
	cmd.AddCommand(newApplyCommand(app))
	cmd.AddCommand(newCancelCommand(app))
	cmd.AddCommand(newListCommand(app))
	return cmd
}

// planned is the serialized outcome of merge plan.
type planned struct {
	Job  *records.MergeJob `json:"job" yaml:"job"`
	Plan *merge.Plan       `json:"plan" yaml:"plan"`
}

func newPlanCommand(app appcontext.Interface) *cobra.Command {
	var submit bool
	cmd := &cobra.Command{
		Use:   "plan <primary-id> <secondary-id...>",
		Short: "Plan a merge and store it as a draft job",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			job, plan, err := client.PlanMerge(cmd.Context(), args[0], args[1:], app.Actor())
			if err != nil {
				return err
			}
			if submit {
				if job, err = client.SubmitMerge(cmd.Context(), job.ID, app.Actor()); err != nil {
					return err
				}
			}
			if err := app.Save(cmd.Context()); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output.Format(app.OutputFormat()).IsTable() {
				fmt.Fprintf(w, "Merge job %s (%s): %d conflicting field(s)\n", job.ID, job.Status, len(plan.Conflicts))
			}
			return output.Write(w, app.OutputFormat(), planned{Job: job, Plan: plan}, func(wide bool) table.Data {
				return table.PlanToTableData(plan, wide)
			})
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit the job for approval right away")
	return cmd
}

func newSubmitCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <job-id>",
		Short: "Submit a draft merge job for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			job, err := client.SubmitMerge(cmd.Context(), args[0], app.Actor())
			if err != nil {
				return err
			}
			return finishJob(cmd, app, job)
		},
	}
}

func newCancelCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a merge job that has not been applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			job, err := client.CancelMerge(cmd.Context(), args[0], app.Actor())
			if err != nil {
				return err
			}
			return finishJob(cmd, app, job)
		},
	}
}

func newApplyCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <job-id>",
		Short: "Approve and apply a pending merge job",
		Long: `Apply approves a pending job as --actor and applies it. If the records
changed since the job was planned so that it no longer validates, nothing
is written and every reason is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			res, err := client.ApplyMerge(cmd.Context(), args[0], app.Actor())
			if err != nil {
				return err
			}
			if !res.Success {
				return errors.NewMergeError(args[0], "", res.Errors, nil)
			}
			if err := app.Save(cmd.Context()); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !output.Format(app.OutputFormat()).IsTable() {
				return output.Write(w, app.OutputFormat(), res, nil)
			}
			fmt.Fprintf(w, "Merged %d record(s) into %s\n", len(res.MergedRecords), res.GoldenRecord.ID)
			return output.Write(w, app.OutputFormat(), res, func(wide bool) table.Data {
				return table.RecordToTableData(res.GoldenRecord, wide)
			})
		},
	}
}

func newListCommand(app appcontext.Interface) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List merge jobs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			jobs, err := client.Store().Jobs(cmd.Context())
			if err != nil {
				return err
			}
			filtered := make([]*records.MergeJob, 0, len(jobs))
			for _, j := range jobs {
				if status == "" || string(j.Status) == status {
					filtered = append(filtered, j)
				}
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), filtered, func(wide bool) table.Data {
				return table.JobsToTableData(filtered, wide)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: draft, pending_approval, applied, cancelled")
	return cmd
}

func finishJob(cmd *cobra.Command, app appcontext.Interface, job *records.MergeJob) error {
	if err := app.Save(cmd.Context()); err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), app.OutputFormat(), job, func(wide bool) table.Data {
		return table.JobsToTableData([]*records.MergeJob{job}, wide)
	})
}
