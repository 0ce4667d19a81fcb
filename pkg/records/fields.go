package records

import (
	"sort"

	"github.com/ledgerline/mdm/pkg/errors"
)

// FieldSpec documents one known field of a record type.
type FieldSpec struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

var fieldRegistry = map[RecordType][]FieldSpec{
	RecordTypePerson: {
		{Name: "firstName", Description: "Given name"},
		{Name: "middleName", Description: "Middle name or initial"},
		{Name: "lastName", Description: "Family name"},
		{Name: "email", Description: "Primary email address"},
		{Name: "phone", Description: "Primary phone number"},
		{Name: "dateOfBirth", Description: "Date of birth (YYYY-MM-DD)"},
		{Name: "ssn", Description: "Social security or national id number"},
		{Name: "address", Description: "Postal address (structured map)"},
		{Name: "citizenship", Description: "Country of citizenship"},
	},
	RecordTypeEntity: {
		{Name: "legalName", Description: "Registered legal name"},
		{Name: "entityType", Description: "Trust, LLC, foundation, partnership"},
		{Name: "taxId", Description: "Tax identification number"},
		{Name: "registrationNumber", Description: "Registry filing number"},
		{Name: "country", Description: "Country of formation"},
		{Name: "email", Description: "Contact email address"},
		{Name: "address", Description: "Registered address (structured map)"},
	},
	RecordTypeAccount: {
		{Name: "accountNumber", Description: "Custodian account number"},
		{Name: "accountName", Description: "Account title"},
		{Name: "custodian", Description: "Custodian institution"},
		{Name: "accountType", Description: "Brokerage, IRA, trust, checking"},
		{Name: "ownerId", Description: "Golden record id of the owner"},
		{Name: "currency", Description: "Base currency"},
		{Name: "openedOn", Description: "Date the account was opened"},
	},
	RecordTypeAsset: {
		{Name: "name", Description: "Security or asset name"},
		{Name: "isin", Description: "ISIN identifier"},
		{Name: "cusip", Description: "CUSIP identifier"},
		{Name: "ticker", Description: "Exchange ticker"},
		{Name: "assetClass", Description: "Equity, fixed income, alternative, cash"},
		{Name: "currency", Description: "Trading currency"},
		{Name: "exchange", Description: "Primary listing exchange"},
	},
}

// Fields returns the documented fields of a record type.
func Fields(rt RecordType) []FieldSpec {
	specs := fieldRegistry[rt]
	out := make([]FieldSpec, len(specs))
	copy(out, specs)
	return out
}

// KnownField reports whether name is a documented field of the record type.
func KnownField(rt RecordType, name string) bool {
	for _, f := range fieldRegistry[rt] {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ValidateFields returns one validation error per undocumented field name,
// sorted by field. The check is advisory: engines accept unknown fields.
func ValidateFields(rt RecordType, fields map[string]Value) []error {
	if !rt.Valid() {
		return []error{errors.NewValidationError("record_type", rt, "unknown record type")}
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if !KnownField(rt, name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, errors.NewValidationError(name, fields[name], "not a documented "+string(rt)+" field"))
	}
	return errs
}
