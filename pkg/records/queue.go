package records

import "time"

// Severity ranks a data-quality issue.
type Severity string

// Severities, most urgent first.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities: critical is 0, unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

// IssueType classifies a data-quality issue.
type IssueType string

// Issue types.
const (
	IssueMissingSource     IssueType = "missing_source"
	IssueLowConfidence     IssueType = "low_confidence"
	IssueConflictingValues IssueType = "conflicting_values"
	IssueStaleData         IssueType = "stale_data"
	IssueInvalidFormat     IssueType = "invalid_format"
)

// QueueStatus is the workflow status of a steward queue item.
type QueueStatus string

// Queue statuses.
const (
	QueueOpen     QueueStatus = "open"
	QueueAssigned QueueStatus = "assigned"
	QueueResolved QueueStatus = "resolved"
)

// Rank orders queue statuses: open first, resolved last.
func (s QueueStatus) Rank() int {
	switch s {
	case QueueOpen:
		return 0
	case QueueAssigned:
		return 1
	case QueueResolved:
		return 2
	}
	return 3
}

// QueueItem is one data-quality issue awaiting a data steward.
type QueueItem struct {
	ID         string         `json:"id" yaml:"id"`
	ClientID   string         `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	RecordType RecordType     `json:"record_type" yaml:"record_type"`
	RecordID   string         `json:"record_id" yaml:"record_id"`
	IssueType  IssueType      `json:"issue_type" yaml:"issue_type"`
	Severity   Severity       `json:"severity" yaml:"severity"`
	Field      string         `json:"field,omitempty" yaml:"field,omitempty"`
	Details    map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Status     QueueStatus    `json:"status" yaml:"status"`
	AssignedTo string         `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
}

// Clone returns a deep copy of the item.
func (q *QueueItem) Clone() *QueueItem {
	if q == nil {
		return nil
	}
	out := *q
	if q.Details != nil {
		out.Details = CloneValue(q.Details).(map[string]any)
	}
	return &out
}
