package mdm

import (
	"sync"

	"github.com/ledgerline/mdm/pkg/merge"
	"github.com/ledgerline/mdm/pkg/records"
)

// Hook function types for MDM events
type (
	// DuplicateFoundHook is called when a new candidate duplicate is stored
	DuplicateFoundHook func(d *records.Duplicate)

	// RecordMergedHook is called after a merge has been committed
	RecordMergedHook func(res *merge.Result)

	// IssueFlaggedHook is called for each new steward queue item
	IssueFlaggedHook func(item *records.QueueItem)
)

// hooks manages event callbacks. Hooks run synchronously after the change
// they report has been committed.
type hooks struct {
	mu               sync.RWMutex
	onDuplicateFound []DuplicateFoundHook
	onRecordMerged   []RecordMergedHook
	onIssueFlagged   []IssueFlaggedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnDuplicateFound registers a callback for new duplicates
func (h *hooks) OnDuplicateFound(fn DuplicateFoundHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDuplicateFound = append(h.onDuplicateFound, fn)
}

// OnRecordMerged registers a callback for applied merges
func (h *hooks) OnRecordMerged(fn RecordMergedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecordMerged = append(h.onRecordMerged, fn)
}

// OnIssueFlagged registers a callback for new queue items
func (h *hooks) OnIssueFlagged(fn IssueFlaggedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onIssueFlagged = append(h.onIssueFlagged, fn)
}

func (h *hooks) duplicatesFound(ds []*records.Duplicate) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, d := range ds {
		for _, fn := range h.onDuplicateFound {
			fn(d.Clone())
		}
	}
}

func (h *hooks) recordMerged(res *merge.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRecordMerged {
		fn(res)
	}
}

func (h *hooks) issuesFlagged(items []*records.QueueItem) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, item := range items {
		for _, fn := range h.onIssueFlagged {
			fn(item.Clone())
		}
	}
}
