package matching

import (
	"fmt"
	"sort"

	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/similarity"
)

// Config is the matching configuration for one record type.
type Config struct {
	Weights     map[string]float64 `json:"weights" yaml:"weights"`
	Threshold   float64            `json:"threshold" yaml:"threshold"`
	FuzzyFields []string           `json:"fuzzy_fields" yaml:"fuzzy_fields"`
	ExactFields []string           `json:"exact_fields" yaml:"exact_fields"`
	Normalizers map[string]string  `json:"normalizers,omitempty" yaml:"normalizers,omitempty"`
}

// Override is a partial Config applied on top of a registry entry.
type Override struct {
	Weights     map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty" mapstructure:"weights"`
	Threshold   *float64           `json:"threshold,omitempty" yaml:"threshold,omitempty" mapstructure:"threshold"`
	FuzzyFields []string           `json:"fuzzy_fields,omitempty" yaml:"fuzzy_fields,omitempty" mapstructure:"fuzzy_fields"`
	ExactFields []string           `json:"exact_fields,omitempty" yaml:"exact_fields,omitempty" mapstructure:"exact_fields"`
	Normalizers map[string]string  `json:"normalizers,omitempty" yaml:"normalizers,omitempty" mapstructure:"normalizers"`
}

// Fields returns the weighted field names in sorted order.
func (c Config) Fields() []string {
	fields := make([]string, 0, len(c.Weights))
	for f := range c.Weights {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// TotalWeight is the sum of all configured weights.
func (c Config) TotalWeight() float64 {
	var total float64
	for _, f := range c.Fields() {
		total += c.Weights[f]
	}
	return total
}

// IsFuzzy reports whether a field is compared with fuzzy similarity.
// Exact configuration wins when a field is listed in both.
func (c Config) IsFuzzy(field string) bool {
	return contains(c.FuzzyFields, field) && !contains(c.ExactFields, field)
}

// Validate checks weights and threshold.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.NewConfigError("matching", fmt.Sprintf("threshold %v must be between 0 and 1", c.Threshold), nil)
	}
	for _, f := range c.Fields() {
		if c.Weights[f] < 0 {
			return errors.NewConfigError("matching", fmt.Sprintf("weight for %s must not be negative", f), nil)
		}
	}
	for f, name := range c.Normalizers {
		if _, ok := similarity.Lookup(name); !ok {
			return errors.NewConfigError("matching", fmt.Sprintf("unknown normalizer %q for field %s", name, f), nil)
		}
	}
	return nil
}

// Apply returns a copy of c with the override merged in: weights and
// normalizers merge key by key, a set threshold replaces, non-empty field
// lists replace.
func (c Config) Apply(o Override) Config {
	out := c.clone()
	for f, w := range o.Weights {
		out.Weights[f] = w
	}
	if o.Threshold != nil {
		out.Threshold = *o.Threshold
	}
	if len(o.FuzzyFields) > 0 {
		out.FuzzyFields = append([]string(nil), o.FuzzyFields...)
	}
	if len(o.ExactFields) > 0 {
		out.ExactFields = append([]string(nil), o.ExactFields...)
	}
	for f, n := range o.Normalizers {
		out.Normalizers[f] = n
	}
	return out
}

func (c Config) clone() Config {
	out := Config{
		Weights:     make(map[string]float64, len(c.Weights)),
		Threshold:   c.Threshold,
		FuzzyFields: append([]string(nil), c.FuzzyFields...),
		ExactFields: append([]string(nil), c.ExactFields...),
		Normalizers: make(map[string]string, len(c.Normalizers)),
	}
	for k, v := range c.Weights {
		out.Weights[k] = v
	}
	for k, v := range c.Normalizers {
		out.Normalizers[k] = v
	}
	return out
}

// Registry holds one Config per record type. Registries are values: With
// returns a new registry and never mutates the receiver.
type Registry struct {
	configs map[records.RecordType]Config
}

// DefaultRegistry returns the built-in matching configuration.
func DefaultRegistry() *Registry {
	return &Registry{configs: map[records.RecordType]Config{
		records.RecordTypePerson: {
			Weights: map[string]float64{
				"email":       0.25,
				"lastName":    0.20,
				"firstName":   0.15,
				"phone":       0.15,
				"dateOfBirth": 0.15,
				"ssn":         0.10,
			},
			Threshold:   0.65,
			ExactFields: []string{"email", "dateOfBirth", "ssn"},
			FuzzyFields: []string{"firstName", "lastName", "phone"},
		},
		records.RecordTypeEntity: {
			Weights: map[string]float64{
				"legalName":          0.35,
				"taxId":              0.30,
				"registrationNumber": 0.15,
				"country":            0.10,
				"email":              0.10,
			},
			Threshold:   0.70,
			ExactFields: []string{"taxId", "registrationNumber", "country", "email"},
			FuzzyFields: []string{"legalName"},
		},
		records.RecordTypeAccount: {
			Weights: map[string]float64{
				"accountNumber": 0.40,
				"custodian":     0.20,
				"accountName":   0.20,
				"ownerId":       0.20,
			},
			Threshold:   0.75,
			ExactFields: []string{"accountNumber", "custodian", "ownerId"},
			FuzzyFields: []string{"accountName"},
		},
		records.RecordTypeAsset: {
			Weights: map[string]float64{
				"isin":   0.35,
				"cusip":  0.25,
				"ticker": 0.15,
				"name":   0.25,
			},
			Threshold:   0.70,
			ExactFields: []string{"isin", "cusip", "ticker"},
			FuzzyFields: []string{"name"},
		},
	}}
}

// Config returns a copy of the configuration for a record type. Unknown
// types get an empty config that matches nothing.
func (r *Registry) Config(rt records.RecordType) Config {
	c, ok := r.configs[rt]
	if !ok {
		return Config{Threshold: 1, Weights: map[string]float64{}, Normalizers: map[string]string{}}
	}
	return c.clone()
}

// With returns a new registry with o merged into the config for rt.
func (r *Registry) With(rt records.RecordType, o Override) *Registry {
	out := &Registry{configs: make(map[records.RecordType]Config, len(r.configs)+1)}
	for k, c := range r.configs {
		out.configs[k] = c.clone()
	}
	out.configs[rt] = r.Config(rt).Apply(o)
	return out
}

// Validate validates every config in the registry.
func (r *Registry) Validate() error {
	for _, rt := range records.RecordTypes() {
		if c, ok := r.configs[rt]; ok {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%s: %w", rt, err)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
