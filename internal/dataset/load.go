package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/tabulario/datalens/internal/domain/errs"
)

// Load reads a CSV file into a Table, inferring one type per column.
// Fails with NotFound if the path is not a readable file, ParseError
// if the content is not well-formed delimited text, Empty if it
// parses to zero data rows.
func Load(path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, errs.NewNotFound(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewNotFound(path)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.NewEmpty(path)
		}
		return nil, errs.NewParseError(path, err)
	}
	if len(header) == 0 {
		return nil, errs.NewParseError(path, errors.New("no columns"))
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return nil, errs.NewParseError(path, errors.New("duplicate column name "+name))
		}
		seen[name] = true
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errs.NewParseError(path, err)
	}
	if len(records) == 0 {
		return nil, errs.NewEmpty(path)
	}

	// Column-major cells
	cells := make([][]string, len(header))
	for j := range header {
		cells[j] = make([]string, len(records))
		for i, record := range records {
			cells[j][i] = record[j]
		}
	}

	table := &Table{
		Source:  path,
		Columns: make([]Column, len(header)),
	}
	for j, name := range header {
		table.Columns[j] = buildColumn(name, inferType(cells[j]), cells[j])
	}
	return table, nil
}
