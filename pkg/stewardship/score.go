package stewardship

import "github.com/ledgerline/mdm/pkg/records"

var penalties = map[records.Severity]int{
	records.SeverityCritical: 25,
	records.SeverityHigh:     15,
	records.SeverityMedium:   10,
	records.SeverityLow:      5,
}

// CalculateDQScore scores a record with the default checker.
func CalculateDQScore(rec *records.Record, rt records.RecordType) int {
	return NewChecker().CalculateDQScore(rec, rt)
}

// CalculateDQScore checks the record and scores the issues found.
func (c *Checker) CalculateDQScore(rec *records.Record, rt records.RecordType) int {
	if rec == nil {
		return 0
	}
	return Score(c.CheckRecordQuality(rec, rt).Issues, len(rec.Sources))
}

// Score starts at 100, subtracts a penalty per issue by severity and
// clamps to 0..100, then adds 5 for more than one snapshot and 5 more for
// more than three. The bonus never lifts the score above 100.
func Score(issues []Issue, sources int) int {
	score := 100
	for _, issue := range issues {
		score -= penalties[issue.Severity]
	}
	score = clamp(score)
	if sources > 1 {
		score += 5
	}
	if sources > 3 {
		score += 5
	}
	return clamp(score)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
