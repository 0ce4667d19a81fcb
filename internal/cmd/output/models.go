package output

import (
	"io"

	"github.com/ledgerline/mdm/internal/cmd/table"
)

// Write renders data in the given format. Table formats render the result
// of toTable; the others serialize data as is.
func Write(w io.Writer, format string, data any, toTable func(wide bool) table.Data) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if f.IsTable() && toTable != nil {
		return NewFormatter(f).Format(w, toTable(f == FormatWide))
	}
	return NewFormatter(f).Format(w, data)
}
