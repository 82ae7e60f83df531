package orm

import "fmt"

// Table provides table-level metadata
type Table struct {
	Name       string `json:"name"`
	PrimaryKey string `json:"primary_key"`
	Schema     string `json:"schema,omitempty"`
}

func (t Table) FullName() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// Metadata describes how a model maps onto its table.
type Metadata struct {
	Table Table

	// Columns lists every mapped column in declaration order.
	Columns []string

	// DefaultOrder is applied to queries that set no ordering of their own.
	DefaultOrder []string
}

func (m Metadata) validate() error {
	if m.Table.Name == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidMetadata)
	}
	if m.Table.PrimaryKey == "" {
		return fmt.Errorf("%w: %s has no primary key", ErrInvalidMetadata, m.Table.Name)
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("%w: %s has no columns", ErrInvalidMetadata, m.Table.Name)
	}
	for _, col := range m.Columns {
		if col == m.Table.PrimaryKey {
			return nil
		}
	}
	return fmt.Errorf("%w: primary key %s is not a column of %s", ErrInvalidMetadata, m.Table.PrimaryKey, m.Table.Name)
}

// qualified returns the columns prefixed with the table name, skipping omitted ones.
func (m Metadata) qualified(omit map[string]struct{}) []string {
	cols := make([]string, 0, len(m.Columns))
	for _, col := range m.Columns {
		if _, skip := omit[col]; skip {
			continue
		}
		cols = append(cols, m.Table.Name+"."+col)
	}
	return cols
}

// insertColumns returns every column except the primary key.
func (m Metadata) insertColumns() []string {
	cols := make([]string, 0, len(m.Columns))
	for _, col := range m.Columns {
		if col != m.Table.PrimaryKey {
			cols = append(cols, col)
		}
	}
	return cols
}

func (m Metadata) hasColumn(name string) bool {
	for _, col := range m.Columns {
		if col == name {
			return true
		}
	}
	return false
}
