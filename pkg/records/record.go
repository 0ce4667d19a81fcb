package records

import (
	"sort"
	"time"
)

// SourceSnapshot is the full set of field values one source system reported
// for a record at a point in time. Snapshots are immutable once ingested.
type SourceSnapshot struct {
	SourceSystem string           `json:"source_system" yaml:"source_system"`
	SourceID     string           `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	AsOf         time.Time        `json:"as_of" yaml:"as_of"`
	Fields       map[string]Value `json:"fields" yaml:"fields"`
}

// Has reports whether the snapshot carries the field at all, empty or not.
func (s SourceSnapshot) Has(field string) bool {
	_, ok := s.Fields[field]
	return ok
}

// Clone returns a deep copy of the snapshot.
func (s SourceSnapshot) Clone() SourceSnapshot {
	out := s
	out.Fields = cloneFields(s.Fields)
	return out
}

// Override is a steward's hand-set value for one field of a golden record.
// Overrides always win survivorship.
type Override struct {
	Value        Value     `json:"value" yaml:"value"`
	OverriddenBy string    `json:"overridden_by" yaml:"overridden_by"`
	Reason       string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	OverriddenAt time.Time `json:"overridden_at,omitempty" yaml:"overridden_at,omitempty"`
}

// Record is a golden record: the survivorship result over its source
// snapshots plus any manual overrides. Chosen and Confidence are derived.
type Record struct {
	ID           string              `json:"id" yaml:"id"`
	RecordType   RecordType          `json:"record_type" yaml:"record_type"`
	Status       Status              `json:"status" yaml:"status"`
	Chosen       map[string]Value    `json:"chosen" yaml:"chosen"`
	Confidence   map[string]int      `json:"confidence" yaml:"confidence"`
	Sources      []SourceSnapshot    `json:"sources" yaml:"sources"`
	Overrides    map[string]Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	MergedIntoID string              `json:"merged_into_id,omitempty" yaml:"merged_into_id,omitempty"`
	DQScore      *int                `json:"dq_score,omitempty" yaml:"dq_score,omitempty"`
	Version      int                 `json:"version" yaml:"version"`
	UpdatedAt    time.Time           `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// IsMerged reports whether the record has been merged into another one.
// Merged records never take part in candidate generation.
func (r *Record) IsMerged() bool {
	return r.Status == StatusMerged || r.MergedIntoID != ""
}

// Get returns the chosen value for a field.
func (r *Record) Get(field string) Value {
	if r == nil || r.Chosen == nil {
		return nil
	}
	return r.Chosen[field]
}

// SourceFields returns the sorted, distinct field names across all snapshots.
func (r *Record) SourceFields() []string {
	seen := make(map[string]struct{})
	for _, s := range r.Sources {
		for f := range s.Fields {
			seen[f] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Chosen = cloneFields(r.Chosen)
	if r.Confidence != nil {
		out.Confidence = make(map[string]int, len(r.Confidence))
		for k, v := range r.Confidence {
			out.Confidence[k] = v
		}
	}
	if r.Sources != nil {
		out.Sources = make([]SourceSnapshot, len(r.Sources))
		for i, s := range r.Sources {
			out.Sources[i] = s.Clone()
		}
	}
	if r.Overrides != nil {
		out.Overrides = make(map[string]Override, len(r.Overrides))
		for k, o := range r.Overrides {
			o.Value = CloneValue(o.Value)
			out.Overrides[k] = o
		}
	}
	if r.DQScore != nil {
		score := *r.DQScore
		out.DQScore = &score
	}
	return &out
}

func cloneFields(in map[string]Value) map[string]Value {
	if in == nil {
		return nil
	}
	out := make(map[string]Value, len(in))
	for k, v := range in {
		out[k] = CloneValue(v)
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
