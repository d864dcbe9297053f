package model

// ColumnInfo describes one column of the header
type ColumnInfo struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Field is one column/value pair of a record
type Field struct {
	Column  string `json:"column"`
	Value   string `json:"value"`
	Missing bool   `json:"missing,omitempty"`
}

// RecordView is a record with its fields in header order
type RecordView struct {
	Index  int     `json:"index"`
	Fields []Field `json:"fields"`
}

// NewRecordView lists the fields of a record in header order
func NewRecordView(r Record) RecordView {
	view := RecordView{
		Index:  r.Index,
		Fields: make([]Field, len(r.values)),
	}
	for pos, column := range r.header.names {
		view.Fields[pos] = Field{Column: column, Value: r.values[pos], Missing: r.missing[pos]}
	}
	return view
}

// CoercionInfo is a value of a number column that is not numeric
type CoercionInfo struct {
	Column string `json:"column"`
	Record int    `json:"record"`
	Value  string `json:"value"`
}

// StatsView is the serializable form of Statistics
type StatsView struct {
	Numeric        map[string]NumericStats `json:"numeric"`
	Categorical    map[string][]string     `json:"categorical"`
	CoercionErrors []CoercionInfo          `json:"coercionErrors"`
}

// NewStatsView flattens the coercion errors of s
func NewStatsView(s Statistics) StatsView {
	view := StatsView{
		Numeric:        s.Numeric,
		Categorical:    s.Categorical,
		CoercionErrors: make([]CoercionInfo, len(s.CoercionErrors)),
	}
	for i, ce := range s.CoercionErrors {
		view.CoercionErrors[i] = CoercionInfo{Column: ce.Column, Record: ce.Record, Value: ce.Value}
	}
	return view
}

// Columns lists the header columns with their catalog types
func (g *Grid) Columns() []ColumnInfo {
	names := g.Header().Names()
	columns := make([]ColumnInfo, len(names))
	for i, name := range names {
		columns[i] = ColumnInfo{Name: name, Type: g.catalog.TypeOf(name)}
	}
	return columns
}
