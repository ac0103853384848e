package dataset

// Type is the inferred type of a column.
type Type int

const (
	TypeText Type = iota
	TypeNumeric
	TypeBoolean
)

func (t Type) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// Value is a single typed cell. Raw preserves the source text so
// excerpts render exactly what the file contained. Missing cells
// have Null set and carry no other meaning.
type Value struct {
	Null bool
	Num  float64
	Bool bool
	Raw  string
}

// Format renders the cell for display. Missing cells render empty.
func (v Value) Format() string {
	if v.Null {
		return ""
	}
	return v.Raw
}

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Type   Type
	Values []Value
}

// NonNullCount returns the number of non-missing values.
func (c *Column) NonNullCount() int {
	n := 0
	for _, v := range c.Values {
		if !v.Null {
			n++
		}
	}
	return n
}

// NullCount returns the number of missing values.
func (c *Column) NullCount() int {
	return len(c.Values) - c.NonNullCount()
}

// Table is an immutable in-memory dataset: equal-length named columns
// with unique names. Derived tables are new instances.
type Table struct {
	Source  string
	Columns []Column
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns column names in original order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Rows renders up to limit rows as display strings in column order.
// limit <= 0 means all rows.
func (t *Table) Rows(limit int) [][]string {
	n := t.RowCount()
	if limit > 0 && limit < n {
		n = limit
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.Columns))
		for j := range t.Columns {
			row[j] = t.Columns[j].Values[i].Format()
		}
		rows[i] = row
	}
	return rows
}

// Derive builds a new table containing the given row indices, in the
// order given. Column order and types are preserved; the receiver is
// left untouched.
func (t *Table) Derive(indices []int) *Table {
	derived := &Table{
		Source:  t.Source,
		Columns: make([]Column, len(t.Columns)),
	}
	for j, col := range t.Columns {
		values := make([]Value, len(indices))
		for i, idx := range indices {
			values[i] = col.Values[idx]
		}
		derived.Columns[j] = Column{Name: col.Name, Type: col.Type, Values: values}
	}
	return derived
}
