package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/hangxie/csv-browser/client"
	"github.com/hangxie/csv-browser/model"
)

const countBarWidth = 40

// QueryCmd is a kong command that prints a projection of a served grid
type QueryCmd struct {
	URL     string        `arg:"" env:"CSVB_URL" help:"Base URL of a running serve or webui command, e.g. http://localhost:8080."`
	Sort    string        `short:"s" help:"Column to sort by."`
	Desc    bool          `short:"d" help:"Sort descending instead of ascending."`
	Search  string        `short:"q" help:"Only print records containing this keyword."`
	Detail  int           `default:"-1" help:"Print every field of the record at this load index."`
	Counts  string        `help:"Print the record count per value of this category column."`
	Width   int           `short:"w" default:"24" help:"Maximum display width of a column (default 24)."`
	Timeout time.Duration `default:"30s" help:"Timeout of the whole query (default 30s)."`
}

// Run queries the server and prints the result to stdout
func (q QueryCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), q.Timeout)
	defer cancel()
	return q.run(ctx, client.NewGridClient(strings.TrimSuffix(q.URL, "/")), os.Stdout)
}

func (q QueryCmd) run(ctx context.Context, c *client.GridClient, w io.Writer) error {
	switch {
	case q.Counts != "":
		counts, err := c.CategoryCounts(ctx, q.Counts)
		if err != nil {
			return fmt.Errorf("failed to query counts: %w", err)
		}
		_, err = io.WriteString(w, formatCounts(counts, q.Width))
		return err
	case q.Detail >= 0:
		record, err := c.Record(ctx, q.Detail)
		if err != nil {
			return fmt.Errorf("failed to query record %d: %w", q.Detail, err)
		}
		_, err = io.WriteString(w, formatRecord(record.Fields))
		return err
	case q.Detail < -1:
		return fmt.Errorf("%w: %d", ErrInvalidRecordIndex, q.Detail)
	}

	columns, err := c.Columns(ctx)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}

	state := model.SortState{}
	if q.Sort != "" {
		state = model.SortState{Column: q.Sort, Direction: model.Ascending}
		if q.Desc {
			state.Direction = model.Descending
		}
	}
	page, err := c.Rows(ctx, state, q.Search)
	if err != nil {
		return fmt.Errorf("failed to query rows: %w", err)
	}

	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	values := make([][]string, len(page.Rows))
	for i, row := range page.Rows {
		values[i] = make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			values[i][j] = cell.Value
		}
	}

	if _, err := io.WriteString(w, formatTable(names, values, q.Width)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "(%d records)\n", page.Count)
	return err
}

// formatTable aligns values in columns no wider than maxWidth display cells
func formatTable(header []string, rows [][]string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = math.MaxInt
	}
	widths := make([]int, len(header))
	measure := func(pos int, s string) {
		if pos < len(widths) {
			widths[pos] = max(widths[pos], min(runewidth.StringWidth(s), maxWidth))
		}
	}
	for i, h := range header {
		measure(i, h)
	}
	for _, row := range rows {
		for i, v := range row {
			measure(i, v)
		}
	}

	var sb strings.Builder
	writeLine := func(values []string) {
		for i, width := range widths {
			if i > 0 {
				sb.WriteString("  ")
			}
			var v string
			if i < len(values) {
				v = values[i]
			}
			cell := runewidth.Truncate(v, width, "…")
			if i < len(widths)-1 {
				cell = runewidth.FillRight(cell, width)
			}
			sb.WriteString(cell)
		}
		sb.WriteString("\n")
	}

	writeLine(header)
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	writeLine(rule)
	for _, row := range rows {
		writeLine(row)
	}
	return sb.String()
}

// formatRecord lists the fields of a record as "column: value" lines
func formatRecord(fields []model.Field) string {
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(f.Column)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatCounts prints one line per category value with a proportional bar
func formatCounts(counts []model.CategoryCount, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = math.MaxInt
	}
	maxCount := model.MaxCount(counts)
	labelWidth := 0
	for _, c := range counts {
		labelWidth = max(labelWidth, min(runewidth.StringWidth(c.Value), maxWidth))
	}

	var sb strings.Builder
	for _, c := range counts {
		bar := 0
		if maxCount > 0 {
			bar = c.Count * countBarWidth / maxCount
		}
		label := runewidth.FillRight(runewidth.Truncate(c.Value, labelWidth, "…"), labelWidth)
		fmt.Fprintf(&sb, "%s  %6d  %s\n", label, c.Count, strings.Repeat("█", bar))
	}
	return sb.String()
}
