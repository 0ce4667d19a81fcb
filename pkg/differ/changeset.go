package differ

import (
	"sort"

	"github.com/ledgerline/mdm/pkg/records"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a field or record was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a field or record was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates a field or record was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a single chosen field.
type FieldChange struct {
	Path     string        `json:"path" yaml:"path"`
	OldValue records.Value `json:"old_value" yaml:"old_value"`
	NewValue records.Value `json:"new_value" yaml:"new_value"`
	Type     ChangeType    `json:"type" yaml:"type"`
}

// RecordUpdate represents an update to an existing record.
type RecordUpdate struct {
	ID      string        `json:"id" yaml:"id"`
	Changes []FieldChange `json:"changes" yaml:"changes"`
}

// Changeset represents all changes between two sets of records.
type Changeset struct {
	Added   []string       `json:"added" yaml:"added"`
	Updated []RecordUpdate `json:"updated" yaml:"updated"`
	Removed []string       `json:"removed" yaml:"removed"`
}

// IsEmpty reports whether the changeset has no changes.
func (c *Changeset) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Changes lists chosen-value changes between two versions of a record,
// sorted by field path.
func Changes(before, after *records.Record) []FieldChange {
	return New().Changes(before, after)
}

func (d *differ) Changes(before, after *records.Record) []FieldChange {
	var oldChosen, newChosen map[string]records.Value
	if before != nil {
		oldChosen = before.Chosen
	}
	if after != nil {
		newChosen = after.Chosen
	}

	changes := []FieldChange{}
	for _, field := range d.union(oldChosen, newChosen) {
		ov, hadOld := oldChosen[field]
		nv, hasNew := newChosen[field]
		switch {
		case !hadOld:
			changes = append(changes, FieldChange{Path: field, NewValue: nv, Type: ChangeTypeAdd})
		case !hasNew:
			changes = append(changes, FieldChange{Path: field, OldValue: ov, Type: ChangeTypeRemove})
		case !records.Equal(ov, nv):
			changes = append(changes, FieldChange{Path: field, OldValue: ov, NewValue: nv, Type: ChangeTypeUpdate})
		}
	}
	return changes
}

func (d *differ) Records(existing, updated []*records.Record) *Changeset {
	cs := &Changeset{Added: []string{}, Updated: []RecordUpdate{}, Removed: []string{}}

	existingByID := make(map[string]*records.Record, len(existing))
	for _, r := range existing {
		existingByID[r.ID] = r
	}
	updatedByID := make(map[string]*records.Record, len(updated))
	for _, r := range updated {
		updatedByID[r.ID] = r
		old, ok := existingByID[r.ID]
		if !ok {
			cs.Added = append(cs.Added, r.ID)
			continue
		}
		changes := d.Changes(old, r)
		if len(changes) > 0 || old.Status != r.Status {
			cs.Updated = append(cs.Updated, RecordUpdate{ID: r.ID, Changes: changes})
		}
	}
	for _, r := range existing {
		if _, ok := updatedByID[r.ID]; !ok {
			cs.Removed = append(cs.Removed, r.ID)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Removed)
	sort.Slice(cs.Updated, func(i, j int) bool {
		return cs.Updated[i].ID < cs.Updated[j].ID
	})
	return cs
}
