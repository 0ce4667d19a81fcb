// Package constants provides shared constants used throughout the MDM engine.
// This includes scoring thresholds, concurrency limits, staleness windows and
// file permissions that should be consistent across the application.
package constants

import "time"

// Scoring constants used by matching, survivorship and stewardship
const (
	// FuzzyReasonThreshold is the minimum fuzzy similarity reported as a match reason
	FuzzyReasonThreshold = 0.7

	// OverrideConfidence is the confidence assigned to a manually overridden field
	OverrideConfidence = 100

	// CustomRuleConfidence is the confidence assigned when a custom rule picks the value
	CustomRuleConfidence = 90

	// SingleSourceConfidence is the confidence when exactly one candidate survives filtering
	SingleSourceConfidence = 85

	// AgreementBaseConfidence is the floor of the agreement-based confidence formula
	AgreementBaseConfidence = 70

	// AgreementSpan is the range added on top of the base for full agreement
	AgreementSpan = 30

	// LowConfidenceThreshold flags a field for stewardship review
	LowConfidenceThreshold = 50

	// VeryLowConfidenceThreshold escalates a low confidence issue to high severity
	VeryLowConfidenceThreshold = 30
)

// Timing constants
const (
	// StaleAfter is how old a source snapshot may be before it is flagged stale
	StaleAfter = 365 * 24 * time.Hour

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute
)

// Limit constants define concurrency limits for the pairwise scan
const (
	// DefaultWorkers is the default number of concurrent shard workers
	DefaultWorkers = 4

	// DefaultShardSize is the number of left-hand rows compared per shard
	DefaultShardSize = 64
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// CLI defaults
const (
	// DefaultDataFile is the dataset the CLI reads and writes when none is configured
	DefaultDataFile = "mdm.yaml"
)

// Environment variables read outside of viper
const (
	// EnvLogLevel sets the default logger's level
	EnvLogLevel = "MDM_LOG_LEVEL"

	// EnvLogFormat sets the default logger's format (json, console, auto)
	EnvLogFormat = "MDM_LOG_FORMAT"
)
