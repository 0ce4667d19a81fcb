// Package cmdutil provides flags and helpers shared by mdm commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/ledgerline/mdm/pkg/records"
)

// TypeFlags selects the record types a command works on.
type TypeFlags struct {
	Type string
}

// AddTypeFlags adds --type to a command. An empty value means every type.
func AddTypeFlags(cmd *cobra.Command) *TypeFlags {
	flags := &TypeFlags{}
	cmd.Flags().StringVarP(&flags.Type, "type", "t", "",
		"Record type: person, entity, account, asset (default all)")
	return flags
}

// Types returns the selected record types.
func (f *TypeFlags) Types() ([]records.RecordType, error) {
	if f.Type == "" || f.Type == "all" {
		return records.RecordTypes(), nil
	}
	rt, err := records.ParseRecordType(f.Type)
	if err != nil {
		return nil, err
	}
	return []records.RecordType{rt}, nil
}

// Single returns the selected record type, or "" for all.
func (f *TypeFlags) Single() (records.RecordType, error) {
	if f.Type == "" || f.Type == "all" {
		return "", nil
	}
	return records.ParseRecordType(f.Type)
}
