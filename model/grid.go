package model

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Cell is one render-ready grid cell
type Cell struct {
	Column    string      `json:"column"`
	Type      ColumnType  `json:"type"`
	Value     string      `json:"value"`
	Missing   bool        `json:"missing,omitempty"`
	Highlight Highlighted `json:"highlight"`
	Color     *Color      `json:"color,omitempty"`
}

// Row is one render-ready grid row
type Row struct {
	Index  int    `json:"index"`
	Record Record `json:"record"`
	Cells  []Cell `json:"cells"`
}

// Grid owns one dataset together with its sort, search and detail state.
// A Grid is not safe for concurrent use.
type Grid struct {
	catalog TypeCatalog
	locale  language.Tag
	sorter  *Sorter
	logger  *slog.Logger
	now     func() time.Time

	dataset *Dataset
	sort    SortState
	keyword string
	detail  *Record
}

// GridOption configures a Grid
type GridOption func(*Grid)

// WithLocale sets the collation language of text columns
func WithLocale(tag language.Tag) GridOption {
	return func(g *Grid) {
		g.locale = tag
	}
}

// WithLogger sets the logger used for load diagnostics, a nil logger is ignored
func WithLogger(logger *slog.Logger) GridOption {
	return func(g *Grid) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGrid creates an empty Grid for the given type catalog
func NewGrid(catalog TypeCatalog, opts ...GridOption) *Grid {
	g := &Grid{
		catalog: catalog.Merge(nil),
		locale:  language.Und,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.sorter = NewSorter(g.catalog, g.locale)
	return g
}

// LoadDataset parses raw text and replaces the current dataset, resetting sort,
// search and detail state. On error the current dataset is kept.
func (g *Grid) LoadDataset(raw string) error {
	return g.LoadSource("", raw)
}

// LoadSource is LoadDataset with the name of the source recorded in the dataset info
func (g *Grid) LoadSource(source, raw string) error {
	header, records, err := Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	for column := range g.catalog {
		if !header.Has(column) {
			g.logger.Warn("catalog column not in header", "column", column, "source", source)
		}
	}

	stats := BuildStatistics(header, records, g.catalog)
	for _, ce := range stats.CoercionErrors {
		g.logger.Debug("value not numeric", "column", ce.Column, "record", ce.Record, "value", ce.Value)
	}

	g.dataset = &Dataset{
		ID:       uuid.NewString(),
		Source:   source,
		LoadedAt: g.now(),
		Header:   header,
		Records:  records,
		Stats:    stats,
	}
	g.sort = SortState{}
	g.keyword = ""
	g.detail = nil

	g.logger.Info("dataset loaded",
		"id", g.dataset.ID,
		"source", source,
		"columns", header.Len(),
		"records", len(records),
		"coercionErrors", len(stats.CoercionErrors))
	return nil
}

// Loaded reports whether a dataset is loaded
func (g *Grid) Loaded() bool {
	return g.dataset != nil
}

// OnHeaderClick advances the sort state of column and returns the rows to render
func (g *Grid) OnHeaderClick(column string) ([]Row, error) {
	if err := g.checkColumn(column); err != nil {
		return nil, err
	}
	g.sort = g.sort.Toggle(column)
	return g.Rows(), nil
}

// OnSearchInput replaces the search keyword and returns the rows to render
func (g *Grid) OnSearchInput(keyword string) []Row {
	g.keyword = keyword
	return g.Rows()
}

// OnRowClick stores the record as the detail record and returns it
func (g *Grid) OnRowClick(record Record) Record {
	g.detail = &record
	return record
}

// OnRowIndex selects the record at a load index as the detail record
func (g *Grid) OnRowIndex(index int) (Record, error) {
	if g.dataset == nil {
		return Record{}, ErrNoDataset
	}
	n := len(g.dataset.Records)
	if index < 0 || index >= n {
		return Record{}, fmt.Errorf("record index %d out of range [0, %d): %w", index, n, ErrInvalidRecordIndex)
	}
	return g.OnRowClick(g.dataset.Records[index]), nil
}

// Detail returns the current detail record
func (g *Grid) Detail() (Record, bool) {
	if g.detail == nil {
		return Record{}, false
	}
	return *g.detail, true
}

// Rows projects the dataset with the current sort state and keyword
func (g *Grid) Rows() []Row {
	return g.Project(g.sort, g.keyword)
}

// Project sorts the dataset, then filters it with keyword and builds render-ready rows.
// It does not change the grid state.
func (g *Grid) Project(state SortState, keyword string) []Row {
	if g.dataset == nil {
		return nil
	}
	ordered := g.sorter.Sort(g.dataset.Records, state.Column, state.Direction)
	visible := Filter(ordered, keyword)

	rows := make([]Row, len(visible))
	for i, r := range visible {
		rows[i] = g.projectRow(r, keyword)
	}
	return rows
}

func (g *Grid) projectRow(r Record, keyword string) Row {
	names := g.dataset.Header.names
	row := Row{
		Index:  r.Index,
		Record: r,
		Cells:  make([]Cell, len(names)),
	}
	for pos, column := range names {
		value := r.values[pos]
		cell := Cell{
			Column:    column,
			Type:      g.catalog.TypeOf(column),
			Value:     value,
			Missing:   r.missing[pos],
			Highlight: Highlight(value, keyword),
		}
		if c, ok := g.CellColor(column, value); ok {
			cell.Color = &c
		}
		row.Cells[pos] = cell
	}
	return row
}

// CellColor encodes a raw value of column, ok is false when the column is not
// encoded or the value has no color
func (g *Grid) CellColor(column, value string) (Color, bool) {
	if g.dataset == nil {
		return Color{}, false
	}
	stats := g.dataset.Stats
	switch g.catalog.TypeOf(column) {
	case TypeNumber:
		if ns, ok := stats.NumericFor(column); ok {
			return NumericColor(value, ns)
		}
	case TypeCategory:
		if values, ok := stats.CategoriesFor(column); ok {
			return CategoryColor(value, values)
		}
	}
	return Color{}, false
}

// CategoryCounts counts all records per distinct value of a category column
func (g *Grid) CategoryCounts(column string) ([]CategoryCount, error) {
	if err := g.checkColumn(column); err != nil {
		return nil, err
	}
	values, ok := g.dataset.Stats.CategoriesFor(column)
	if !ok {
		return nil, fmt.Errorf("column %q: %w", column, ErrNotCategory)
	}
	return CountCategories(g.dataset.Records, column, values), nil
}

func (g *Grid) checkColumn(column string) error {
	if g.dataset == nil {
		return ErrNoDataset
	}
	if !g.dataset.Header.Has(column) {
		return fmt.Errorf("column %q: %w", column, ErrUnknownColumn)
	}
	return nil
}

// Header returns the header of the loaded dataset
func (g *Grid) Header() Header {
	if g.dataset == nil {
		return Header{}
	}
	return g.dataset.Header
}

// Catalog returns the type catalog
func (g *Grid) Catalog() TypeCatalog {
	return g.catalog
}

// SortState returns the current sort state
func (g *Grid) SortState() SortState {
	return g.sort
}

// Keyword returns the current search keyword
func (g *Grid) Keyword() string {
	return g.keyword
}

// Statistics returns the statistics of the loaded dataset
func (g *Grid) Statistics() Statistics {
	if g.dataset == nil {
		return Statistics{}
	}
	return g.dataset.Stats
}

// Records returns the records in load order
func (g *Grid) Records() []Record {
	if g.dataset == nil {
		return nil
	}
	return append([]Record(nil), g.dataset.Records...)
}

// Info summarizes the loaded dataset and the current state
func (g *Grid) Info() DatasetInfo {
	info := DatasetInfo{
		SortColumn:    g.sort.Column,
		SortDirection: g.sort.Direction.String(),
		Keyword:       g.keyword,
	}
	if g.dataset == nil {
		return info
	}
	info.ID = g.dataset.ID
	info.Source = g.dataset.Source
	info.LoadedAt = g.dataset.LoadedAt
	info.Columns = g.dataset.Header.Names()
	info.NumRecords = len(g.dataset.Records)
	info.NumVisible = len(Filter(g.dataset.Records, g.keyword))
	info.CoercionErrors = len(g.dataset.Stats.CoercionErrors)
	return info
}
