// Package provenance provides field-level tracking of where each golden
// value came from and which survivorship rule selected it.
package provenance

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/records"
)

// Provenance tracks the origin of one golden field value.
type Provenance struct {
	Source       string        `yaml:"source" json:"source"`             // Source system that supplied the value, or manual_override
	Field        string        `yaml:"field" json:"field"`               // Field name
	Value        any           `yaml:"value" json:"value"`               // The chosen value
	Timestamp    time.Time     `yaml:"timestamp" json:"timestamp"`       // When the decision was made
	AsOf         time.Time     `yaml:"as_of,omitempty" json:"as_of"`     // As-of time of the winning snapshot
	Rule         string        `yaml:"rule" json:"rule"`                 // Survivorship rule that decided
	Confidence   int           `yaml:"confidence" json:"confidence"`     // 0-100
	Reason       string        `yaml:"reason,omitempty" json:"reason"`   // Human-readable explanation
	Alternatives []Alternative `yaml:"alternatives,omitempty" json:"alternatives"`
}

// Alternative is a losing candidate value.
type Alternative struct {
	Source string `yaml:"source" json:"source"`
	Value  any    `yaml:"value" json:"value"`
}

// Map tracks provenance for multiple records.
type Map map[string][]Provenance // key is "recordType:recordID:field"

// Tracker manages provenance tracking during golden record builds.
type Tracker interface {
	// Track records provenance for a field
	Track(recordType records.RecordType, recordID string, field string, entry Provenance)

	// FindByField retrieves provenance for a specific field, oldest first
	FindByField(recordType records.RecordType, recordID string, field string) []Provenance

	// FindByRecord retrieves all provenance for a record
	FindByRecord(recordType records.RecordType, recordID string) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// tracker is the default implementation. It is safe for concurrent use.
type tracker struct {
	mu         sync.RWMutex
	provenance Map
	enabled    bool
	now        func() time.Time
}

// NewTracker creates a new provenance tracker. A disabled tracker records nothing.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Track records provenance for a field.
func (p *tracker) Track(recordType records.RecordType, recordID string, field string, entry Provenance) {
	if !p.enabled {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = p.now()
	}
	if entry.Field == "" {
		entry.Field = field
	}

	key := makeKey(string(recordType), recordID, field)
	p.mu.Lock()
	p.provenance[key] = append(p.provenance[key], entry)
	p.mu.Unlock()
}

// FindByField retrieves provenance for a specific field.
func (p *tracker) FindByField(recordType records.RecordType, recordID string, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Provenance(nil), p.provenance[makeKey(string(recordType), recordID, field)]...)
}

// FindByRecord retrieves all provenance for a record.
func (p *tracker) FindByRecord(recordType records.RecordType, recordID string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	result := make(map[string][]Provenance)
	prefix := fmt.Sprintf("%s:%s:", recordType, recordID)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found {
			result[field] = append([]Provenance(nil), info...)
		}
	}
	return result
}

// Map returns a copy of the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.mu.Lock()
	p.provenance = make(Map)
	p.mu.Unlock()
}

func makeKey(recordType string, recordID string, field string) string {
	return fmt.Sprintf("%s:%s:%s", recordType, recordID, field)
}

// Report groups provenance by record for display.
type Report struct {
	Records map[string]RecordProvenance // key is "recordType:recordID"
}

// RecordProvenance contains provenance for a single record.
type RecordProvenance struct {
	Type   records.RecordType
	ID     string
	Fields map[string]Field
}

// Field contains provenance history for a single field.
type Field struct {
	Current   Provenance   // Latest decision
	History   []Provenance // All decisions, newest first
	Conflicts []Alternative
}

// GenerateReport creates a provenance report from a Map.
func GenerateReport(provenance Map) *Report {
	report := &Report{Records: make(map[string]RecordProvenance)}

	for key, infos := range provenance {
		parts := strings.SplitN(key, ":", 3)
		if len(parts) != 3 {
			continue
		}
		recordKey := parts[0] + ":" + parts[1]

		rec, exists := report.Records[recordKey]
		if !exists {
			rec = RecordProvenance{
				Type:   records.RecordType(parts[0]),
				ID:     parts[1],
				Fields: make(map[string]Field),
			}
		}

		history := append([]Provenance(nil), infos...)
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Timestamp.After(history[j].Timestamp)
		})

		fp := Field{History: history}
		if len(history) > 0 {
			fp.Current = history[0]
			fp.Conflicts = conflicts(history[0])
		}
		rec.Fields[parts[2]] = fp
		report.Records[recordKey] = rec
	}

	return report
}

// conflicts returns the alternatives whose value differs from the chosen one.
func conflicts(p Provenance) []Alternative {
	var out []Alternative
	for _, alt := range p.Alternatives {
		if !records.Equal(alt.Value, p.Value) {
			out = append(out, alt)
		}
	}
	return out
}

// String generates a string representation of the provenance report.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	keys := make([]string, 0, len(r.Records))
	for key := range r.Records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rec := r.Records[key]
		sb.WriteString(fmt.Sprintf("%s: %s\n", rec.Type, rec.ID))
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		fields := make([]string, 0, len(rec.Fields))
		for field := range rec.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			fp := rec.Fields[field]
			sb.WriteString(fmt.Sprintf("  %s:\n", field))
			sb.WriteString(fmt.Sprintf("    Current: %v (from %s, %s, confidence %d)\n",
				fp.Current.Value, fp.Current.Source, fp.Current.Rule, fp.Current.Confidence))
			if len(fp.Conflicts) > 0 {
				sb.WriteString("    Conflicts:\n")
				for _, c := range fp.Conflicts {
					sb.WriteString(fmt.Sprintf("      - %v from %s\n", c.Value, c.Source))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// File is a provenance map stored on disk.
type File struct {
	Provenance Map `yaml:"provenance"`
}

// Write encodes the map as YAML.
func Write(w io.Writer, m Map) error {
	data, err := yaml.MarshalWithOptions(File{Provenance: m}, yaml.Indent(2))
	if err != nil {
		return errors.WrapParse("yaml", "", err)
	}
	_, err = w.Write(data)
	return errors.WrapIO("write", "", err)
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist (not an error).
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	return &pf, nil
}
