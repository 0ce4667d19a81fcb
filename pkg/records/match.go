package records

// MatchReason explains one field's contribution to a match score.
type MatchReason struct {
	Field      string  `json:"field" yaml:"field"`
	ReasonText string  `json:"reason" yaml:"reason"`
	Weight     float64 `json:"weight" yaml:"weight"`
	ValueA     Value   `json:"value_a" yaml:"value_a"`
	ValueB     Value   `json:"value_b" yaml:"value_b"`
}
