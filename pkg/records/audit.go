package records

import "time"

// AuditAction names what an audit event records.
type AuditAction string

// Audit actions.
const (
	AuditRecordMerged        AuditAction = "record_merged"
	AuditRecordMergedInto    AuditAction = "record_merged_into"
	AuditGoldenRebuilt       AuditAction = "golden_record_rebuilt"
	AuditDuplicateIgnored    AuditAction = "duplicate_ignored"
	AuditMergeJobSubmitted   AuditAction = "merge_job_submitted"
	AuditMergeJobCancelled   AuditAction = "merge_job_cancelled"
	AuditQualityCheckApplied AuditAction = "quality_check_applied"
)

// AuditEvent is an immutable entry in the audit trail.
type AuditEvent struct {
	ID        string         `json:"id" yaml:"id"`
	Action    AuditAction    `json:"action" yaml:"action"`
	RecordID  string         `json:"record_id" yaml:"record_id"`
	Actor     string         `json:"actor,omitempty" yaml:"actor,omitempty"`
	Summary   string         `json:"summary" yaml:"summary"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}
