package similarity_test

import (
	"testing"

	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/similarity"
	"github.com/stretchr/testify/assert"
)

func TestExactMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b records.Value
		want float64
	}{
		{"identical", "a@b.com", "a@b.com", 1},
		{"case and space", "  A@B.com ", "a@b.COM", 1},
		{"different", "a@b.com", "c@d.com", 0},
		{"nil left", nil, "x", 0},
		{"nil right", "x", nil, 0},
		{"both nil", nil, nil, 0},
		{"numbers", 123456789, "123456789", 1},
		{"empty strings", "", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, similarity.ExactMatch(tt.a, tt.b))
			assert.Equal(t, tt.want, similarity.ExactMatch(tt.b, tt.a))
		})
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b records.Value
		want float64
	}{
		{"identical", "Smith", "smith", 1},
		{"one substitution", "Smith", "Smyth", 0.8},
		{"kitten sitting", "kitten", "sitting", 1 - 3.0/7.0},
		{"both empty", "", "  ", 1},
		{"one empty", "abc", "", 0},
		{"nil", nil, "abc", 0},
		{"unicode runes", "José", "Jose", 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity.FuzzyMatch(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, similarity.FuzzyMatch(tt.b, tt.a), 1e-9, "symmetry")
		})
	}
}

func TestFuzzyMatchBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "zzzzzzzz"},
		{"Alexander", "Alexandra"},
		{"123 Main St", "123 Main Street"},
	}
	for _, p := range pairs {
		s := similarity.FuzzyMatch(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		kind string
		in   records.Value
		want records.Value
	}{
		{similarity.NormalizeName, "  José  Álvarez Jr.", "jose alvarez"},
		{similarity.NormalizeName, "Smith, PhD", "smith"},
		{similarity.NormalizeEmail, " Ann@Example.COM ", "ann@example.com"},
		{similarity.NormalizePhone, "+1 (617) 555-0100", "16175550100"},
		{similarity.NormalizeIdentifier, "us-0378 331005", "US0378331005"},
		{"unknown", "Keep Me", "Keep Me"},
		{similarity.NormalizeName, 42, 42},
		{similarity.NormalizeName, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, similarity.Normalize(tt.kind, tt.in))
		})
	}

	_, ok := similarity.Lookup(similarity.NormalizePhone)
	assert.True(t, ok)
	assert.Len(t, similarity.Names(), 4)
}
