package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Header holds the ordered column names of a dataset
type Header struct {
	names []string
	index map[string]int
}

// NewHeader creates a Header, the first occurrence of a duplicated name wins lookups
func NewHeader(names []string) Header {
	h := Header{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, name := range h.names {
		if _, ok := h.index[name]; !ok {
			h.index[name] = i
		}
	}
	return h
}

// Names returns a copy of the column names in display order
func (h Header) Names() []string {
	return append([]string(nil), h.names...)
}

// Len returns the number of columns
func (h Header) Len() int {
	return len(h.names)
}

// Position returns the position of a column
func (h Header) Position(column string) (int, bool) {
	pos, ok := h.index[column]
	return pos, ok
}

// Has reports whether the column is part of the header
func (h Header) Has(column string) bool {
	_, ok := h.index[column]
	return ok
}

// Record is one parsed data row. Values are raw strings aligned with the header.
type Record struct {
	Index   int // position in load order
	header  Header
	values  []string
	missing []bool
}

func newRecord(index int, header Header, fields []string) Record {
	r := Record{
		Index:   index,
		header:  header,
		values:  make([]string, header.Len()),
		missing: make([]bool, header.Len()),
	}
	for i := range r.values {
		if i < len(fields) {
			r.values[i] = fields[i]
		} else {
			r.missing[i] = true
		}
	}
	return r
}

// Get returns the raw value of a column; ok is false when the column is unknown
// or the input row was too short to carry it
func (r Record) Get(column string) (string, bool) {
	pos, ok := r.header.Position(column)
	if !ok || pos >= len(r.values) || r.missing[pos] {
		return "", false
	}
	return r.values[pos], true
}

// Value returns the raw value of a column, missing fields read as ""
func (r Record) Value(column string) string {
	v, _ := r.Get(column)
	return v
}

// Values returns a copy of the raw values in header order
func (r Record) Values() []string {
	return append([]string(nil), r.values...)
}

// Missing reports whether the field at position pos was absent from the input
func (r Record) Missing(pos int) bool {
	return pos >= 0 && pos < len(r.missing) && r.missing[pos]
}

// Columns returns the column names of the record in header order
func (r Record) Columns() []string {
	return r.header.Names()
}

// MarshalJSON encodes the record as an object in header order, missing fields are null
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.header.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if r.missing[i] {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dataset is the immutable result of one load
type Dataset struct {
	ID       string
	Source   string
	LoadedAt time.Time
	Header   Header
	Records  []Record
	Stats    Statistics
}

// DatasetInfo summarizes a dataset for display
type DatasetInfo struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	LoadedAt       time.Time `json:"loadedAt"`
	Columns        []string  `json:"columns"`
	NumRecords     int       `json:"numRecords"`
	NumVisible     int       `json:"numVisible"`
	SortColumn     string    `json:"sortColumn,omitempty"`
	SortDirection  string    `json:"sortDirection"`
	Keyword        string    `json:"keyword"`
	CoercionErrors int       `json:"coercionErrors"`
}
