// Package records defines the master-data model shared by every engine:
// golden records and their source snapshots, manual overrides, duplicate
// candidates, merge jobs, steward queue items and audit events.
//
// Field values are an open variant (any) so new source feeds never require a
// schema change; a per-RecordType field registry documents the known fields
// and offers an advisory validation pass.
package records

import (
	"strings"

	"github.com/ledgerline/mdm/pkg/errors"
)

// RecordType is the kind of master-data record.
type RecordType string

// Record types.
const (
	RecordTypePerson  RecordType = "person"
	RecordTypeEntity  RecordType = "entity"
	RecordTypeAccount RecordType = "account"
	RecordTypeAsset   RecordType = "asset"
)

// RecordTypes lists every supported record type in a stable order.
func RecordTypes() []RecordType {
	return []RecordType{RecordTypePerson, RecordTypeEntity, RecordTypeAccount, RecordTypeAsset}
}

// String returns the string representation of a record type.
func (rt RecordType) String() string {
	return string(rt)
}

// Valid reports whether rt is one of the supported record types.
func (rt RecordType) Valid() bool {
	switch rt {
	case RecordTypePerson, RecordTypeEntity, RecordTypeAccount, RecordTypeAsset:
		return true
	}
	return false
}

// ParseRecordType parses a record type, accepting any letter case.
func ParseRecordType(s string) (RecordType, error) {
	rt := RecordType(strings.ToLower(strings.TrimSpace(s)))
	if !rt.Valid() {
		return "", errors.NewValidationError("record_type", s, "must be one of person, entity, account, asset")
	}
	return rt, nil
}

// Status is the lifecycle status of a golden record.
type Status string

// Record statuses.
const (
	StatusActive        Status = "active"
	StatusInactive      Status = "inactive"
	StatusMerged        Status = "merged"
	StatusPendingReview Status = "pending_review"
)

// String returns the string representation of a status.
func (s Status) String() string {
	return string(s)
}
