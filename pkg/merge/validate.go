package merge

import (
	"fmt"

	"github.com/ledgerline/mdm/pkg/records"
)

// ValidationResult lists every reason a merge may not proceed.
type ValidationResult struct {
	Valid  bool     `json:"valid" yaml:"valid"`
	Errors []string `json:"errors" yaml:"errors"`
}

// Validate checks a merge job against the current state of its records.
// All violations are reported, not just the first.
func Validate(job *records.MergeJob, primary *records.Record, secondaries []*records.Record) ValidationResult {
	var errs []string

	if job == nil {
		return ValidationResult{Valid: false, Errors: []string{"merge job is missing"}}
	}

	switch {
	case primary == nil:
		errs = append(errs, fmt.Sprintf("primary record %s not found", job.PrimaryID))
	case primary.IsMerged():
		errs = append(errs, fmt.Sprintf("primary record %s is already merged into %s", primary.ID, primary.MergedIntoID))
	}

	if len(secondaries) == 0 {
		errs = append(errs, "at least one secondary record is required")
	}
	seen := make(map[string]bool, len(secondaries))
	for i, s := range secondaries {
		if s == nil {
			id := ""
			if i < len(job.SecondaryIDs) {
				id = job.SecondaryIDs[i]
			}
			errs = append(errs, fmt.Sprintf("secondary record %s not found", id))
			continue
		}
		if s.IsMerged() {
			errs = append(errs, fmt.Sprintf("secondary record %s is already merged", s.ID))
		}
		if primary != nil && s.ID == primary.ID {
			errs = append(errs, fmt.Sprintf("record %s cannot be merged into itself", s.ID))
		}
		if primary != nil && s.RecordType != primary.RecordType {
			errs = append(errs, fmt.Sprintf("secondary record %s is a %s, primary is a %s", s.ID, s.RecordType, primary.RecordType))
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Sprintf("secondary record %s is listed more than once", s.ID))
		}
		seen[s.ID] = true
	}

	if len(job.SurvivorshipPlan) == 0 {
		errs = append(errs, "survivorship plan is empty")
	}
	if job.Status != records.JobPendingApproval {
		errs = append(errs, fmt.Sprintf("merge job must be pending_approval, not %s", job.Status))
	}

	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
