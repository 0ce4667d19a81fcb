// Package matching scores pairs of golden records of the same record type
// and produces ranked duplicate candidates.
//
// Each record type has a weighted field configuration held in a Registry.
// A pair's score is the weighted average of per-field similarities, where
// exact fields use similarity.ExactMatch and fuzzy fields use
// similarity.FuzzyMatch. Missing values score 0 but still count toward the
// total weight, so sparse records score lower.
//
// FindCandidates compares every unordered pair of eligible records. The
// pairwise scan is split into row shards executed on a bounded worker
// group; the result is sorted by score, then by the pair's ids, so the
// output is identical regardless of worker count.
package matching
