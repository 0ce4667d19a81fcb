package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ledgerline/mdm/pkg/differ"
	"github.com/ledgerline/mdm/pkg/matching"
	"github.com/ledgerline/mdm/pkg/merge"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/stewardship"
)

// RecordsToTableData lists golden records, one per row.
func RecordsToTableData(recs []*records.Record, wide bool) Data {
	headers := []string{"ID", "Type", "Status", "Sources", "DQ", "Version"}
	if wide {
		headers = append(headers, "Merged Into", "Updated")
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		dq := "-"
		if r.DQScore != nil {
			dq = strconv.Itoa(*r.DQScore)
		}
		row := []string{
			r.ID,
			string(r.RecordType),
			string(r.Status),
			strconv.Itoa(len(r.Sources)),
			dq,
			strconv.Itoa(r.Version),
		}
		if wide {
			row = append(row, cell(r.MergedIntoID, true), FormatTime(r.UpdatedAt))
		}
		rows = append(rows, row)
	}
	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight},
	}
}

// RecordToTableData shows one record's golden fields with their
// confidence and the number of sources that reported each one.
func RecordToTableData(r *records.Record, wide bool) Data {
	rows := make([][]string, 0, len(r.Chosen))
	for _, field := range sortedKeys(r.Chosen) {
		conf := "-"
		if c, ok := r.Confidence[field]; ok {
			conf = strconv.Itoa(c)
		}
		reported := 0
		for _, s := range r.Sources {
			if s.Has(field) {
				reported++
			}
		}
		override := ""
		if _, ok := r.Overrides[field]; ok {
			override = "yes"
		}
		rows = append(rows, []string{
			field,
			cell(FormatValue(r.Chosen[field]), wide),
			conf,
			strconv.Itoa(reported),
			cell(override, true),
		})
	}
	return Data{
		Headers:         []string{"Field", "Value", "Confidence", "Sources", "Override"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignCenter},
	}
}

// MatchesToTableData lists candidate pairs from a scan.
func MatchesToTableData(results []matching.Result, wide bool) Data {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.IDA, r.IDB, FormatScore(r.MatchScore), cell(reasonFields(r.Reasons), wide)})
	}
	return Data{
		Headers:         []string{"Record A", "Record B", "Score", "Matched On"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
}

// DuplicatesToTableData lists stored duplicates.
func DuplicatesToTableData(dups []*records.Duplicate, wide bool) Data {
	headers := []string{"ID", "Type", "Record A", "Record B", "Score", "Status"}
	if wide {
		headers = append(headers, "Merge Job", "Matched On", "Ignore Reason")
	}
	rows := make([][]string, 0, len(dups))
	for _, d := range dups {
		row := []string{d.ID, string(d.RecordType), d.IDA, d.IDB, FormatScore(d.MatchScore), string(d.Status)}
		if wide {
			row = append(row, cell(d.MergeJobID, true), cell(reasonFields(d.Reasons), true), cell(d.IgnoreReason, true))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// ComparisonToTableData lines up two records, mismatches first.
func ComparisonToTableData(cmp *differ.Comparison, wide bool) Data {
	rows := make([][]string, 0, len(cmp.Fields))
	for _, f := range cmp.Fields {
		mark := "✓"
		if !f.Match {
			mark = "✗"
		}
		rows = append(rows, []string{f.Field, cell(FormatValue(f.ValueA), wide), cell(FormatValue(f.ValueB), wide), mark})
	}
	return Data{
		Headers:         []string{"Field", cmp.IDA, cmp.IDB, "Match"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignCenter},
	}
}

// ChangesetToTableData lists one row per changed field. Records that changed
// only in status get a single row without a field.
func ChangesetToTableData(cs *differ.Changeset, wide bool) Data {
	var rows [][]string
	for _, id := range cs.Added {
		rows = append(rows, []string{id, "-", string(differ.ChangeTypeAdd), "-", "-"})
	}
	for _, u := range cs.Updated {
		if len(u.Changes) == 0 {
			rows = append(rows, []string{u.ID, "-", string(differ.ChangeTypeUpdate), "-", "-"})
			continue
		}
		for _, c := range u.Changes {
			rows = append(rows, []string{u.ID, c.Path, string(c.Type),
				cell(FormatValue(c.OldValue), wide), cell(FormatValue(c.NewValue), wide)})
		}
	}
	for _, id := range cs.Removed {
		rows = append(rows, []string{id, "-", string(differ.ChangeTypeRemove), "-", "-"})
	}
	return Data{Headers: []string{"Record", "Field", "Change", "Before", "After"}, Rows: rows}
}

// PlanToTableData shows the proposed value of each field in a merge plan.
// Fields with disagreeing candidates are flagged.
func PlanToTableData(plan *merge.Plan, wide bool) Data {
	conflicting := make(map[string]int, len(plan.Conflicts))
	for _, c := range plan.Conflicts {
		conflicting[c.Field] = len(c.Values)
	}
	rows := make([][]string, 0, len(plan.SurvivorshipPlan))
	for _, field := range sortedKeys(plan.SurvivorshipPlan) {
		e := plan.SurvivorshipPlan[field]
		conflict := ""
		if n := conflicting[field]; n > 0 {
			conflict = fmt.Sprintf("%d values", n)
		}
		rows = append(rows, []string{
			field,
			cell(FormatValue(e.Value), wide),
			cell(e.Source, true),
			e.Rule,
			strconv.Itoa(e.Confidence),
			cell(conflict, true),
		})
	}
	return Data{
		Headers:         []string{"Field", "Value", "Source", "Rule", "Confidence", "Conflict"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
}

// JobsToTableData lists merge jobs.
func JobsToTableData(jobs []*records.MergeJob, wide bool) Data {
	headers := []string{"ID", "Type", "Primary", "Secondaries", "Status"}
	if wide {
		headers = append(headers, "Requested By", "Approved By", "Created")
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		row := []string{j.ID, string(j.RecordType), j.PrimaryID, strings.Join(j.SecondaryIDs, ", "), string(j.Status)}
		if wide {
			row = append(row, cell(j.RequestedBy, true), cell(j.ApprovedBy, true), FormatTime(j.CreatedAt))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// ChecksToTableData lists the issues found by quality checks, one row per
// issue; a clean record gets a single row.
func ChecksToTableData(checks []stewardship.Check, scores map[string]int, wide bool) Data {
	var rows [][]string
	for _, c := range checks {
		score := "-"
		if s, ok := scores[c.RecordID]; ok {
			score = strconv.Itoa(s)
		}
		if len(c.Issues) == 0 {
			rows = append(rows, []string{c.RecordID, score, "-", "-", "-", "no issues"})
			continue
		}
		for i, issue := range c.Issues {
			id, dq := c.RecordID, score
			if i > 0 {
				id, dq = "", ""
			}
			rows = append(rows, []string{id, dq, string(issue.Severity), string(issue.IssueType), cell(issue.Field, true), cell(issue.Description, wide)})
		}
	}
	return Data{
		Headers:         []string{"Record", "DQ", "Severity", "Issue", "Field", "Description"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}
}

// QueueToTableData lists steward queue items in the order given.
func QueueToTableData(items []*records.QueueItem, wide bool) Data {
	headers := []string{"ID", "Record", "Severity", "Issue", "Field", "Status"}
	if wide {
		headers = append(headers, "Assigned To", "Description", "Created")
	}
	rows := make([][]string, 0, len(items))
	for _, q := range items {
		row := []string{q.ID, q.RecordID, string(q.Severity), string(q.IssueType), cell(q.Field, true), string(q.Status)}
		if wide {
			desc, _ := q.Details["description"].(string)
			row = append(row, cell(q.AssignedTo, true), cell(desc, true), FormatTime(q.CreatedAt))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}
