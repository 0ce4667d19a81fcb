package stewardship

import (
	"sort"

	"github.com/ledgerline/mdm/pkg/records"
)

// GenerateQueueItems turns a check into open queue items using the default
// checker's id generator.
func GenerateQueueItems(check Check, clientID string) []*records.QueueItem {
	return NewChecker().GenerateQueueItems(check, clientID)
}

// GenerateQueueItems maps each issue to one open queue item created at the
// time of the check.
func (c *Checker) GenerateQueueItems(check Check, clientID string) []*records.QueueItem {
	items := make([]*records.QueueItem, 0, len(check.Issues))
	for _, issue := range check.Issues {
		details := map[string]any{"description": issue.Description}
		for k, v := range issue.Details {
			details[k] = records.CloneValue(v)
		}
		items = append(items, &records.QueueItem{
			ID:         c.newID(),
			ClientID:   clientID,
			RecordType: check.RecordType,
			RecordID:   check.RecordID,
			IssueType:  issue.IssueType,
			Severity:   issue.Severity,
			Field:      issue.Field,
			Details:    details,
			Status:     records.QueueOpen,
			CreatedAt:  check.CheckedAt,
		})
	}
	if len(items) > 0 {
		c.logger.Debug().
			Str("record_id", check.RecordID).
			Int("items", len(items)).
			Msg("Queue items generated")
	}
	return items
}

// PrioritizeQueue returns the items in work order: open before assigned
// before resolved, then most severe first, then oldest first. Items that tie
// keep their input order. The input slice is not reordered.
func PrioritizeQueue(items []*records.QueueItem) []*records.QueueItem {
	out := append([]*records.QueueItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Status.Rank() != b.Status.Rank() {
			return a.Status.Rank() < b.Status.Rank()
		}
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}
