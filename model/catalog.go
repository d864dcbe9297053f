package model

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnType is the type tag of a column
type ColumnType string

const (
	TypeText     ColumnType = "text"
	TypeNumber   ColumnType = "number"
	TypeCategory ColumnType = "category"
)

// ParseColumnType converts a type name to a ColumnType, "string" is accepted as text
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string":
		return TypeText, nil
	case "number", "numeric":
		return TypeNumber, nil
	case "category", "categorical":
		return TypeCategory, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownColumnType)
	}
}

// TypeCatalog maps column names to their types
type TypeCatalog map[string]ColumnType

// TypeOf returns the type of a column, columns outside the catalog are text
func (c TypeCatalog) TypeOf(column string) ColumnType {
	if t, ok := c[column]; ok {
		return t
	}
	return TypeText
}

// Columns returns the catalog columns of the given type, sorted by name
func (c TypeCatalog) Columns(t ColumnType) []string {
	var cols []string
	for name, ct := range c {
		if ct == t {
			cols = append(cols, name)
		}
	}
	sort.Strings(cols)
	return cols
}

// Merge returns a new catalog with entries of other overriding c
func (c TypeCatalog) Merge(other TypeCatalog) TypeCatalog {
	merged := make(TypeCatalog, len(c)+len(other))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// catalogFile is the on-disk layout of a type catalog
type catalogFile struct {
	Columns map[string]string `yaml:"columns"`
}

// ParseCatalog reads a YAML catalog of the form
//
//	columns:
//	  pop: number
//	  level: category
func ParseCatalog(data []byte) (TypeCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return NewTypeCatalog(f.Columns)
}

// LoadCatalog reads a YAML catalog file
func LoadCatalog(path string) (TypeCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// NewTypeCatalog builds a catalog from column name to type name pairs
func NewTypeCatalog(types map[string]string) (TypeCatalog, error) {
	catalog := make(TypeCatalog, len(types))
	for name, typeName := range types {
		t, err := ParseColumnType(typeName)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		catalog[strings.TrimSpace(name)] = t
	}
	return catalog, nil
}
