package cmd

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"

	"github.com/hangxie/csv-browser/model"
)

const (
	detailStatusKeys = " [yellow]Keys:[-] ↑↓=scroll, c=copy, Esc=back"
	countsStatusKeys = " [yellow]Keys:[-] ←→=column, ↑↓=scroll, Esc=back"
)

// detailView shows every field of one record
type detailView struct {
	app        *TUIApp
	record     model.Record
	text       *tview.TextView
	statusLine *tview.TextView
	layout     *tview.Flex
}

func (app *TUIApp) showDetail(record model.Record) {
	v := &detailView{app: app, record: record}
	v.build()
	app.pages.AddPage("detail", v.layout, true, true)
	app.tviewApp.SetFocus(v.text)
}

func (v *detailView) build() {
	view := model.NewRecordView(v.record)
	keyword := v.app.grid.Keyword()

	labelWidth := 0
	for _, f := range view.Fields {
		labelWidth = max(labelWidth, runewidth.StringWidth(f.Column))
	}

	var sb strings.Builder
	for _, f := range view.Fields {
		label := runewidth.FillRight(f.Column, labelWidth)
		sb.WriteString(fmt.Sprintf("[yellow]%s[-]  ", tview.Escape(label)))
		switch {
		case f.Missing:
			sb.WriteString("[gray](missing)[-]")
		default:
			cell := model.Cell{Value: f.Value, Highlight: model.Highlight(f.Value, keyword)}
			width := runewidth.StringWidth(f.Value)
			if c, ok := v.app.grid.CellColor(f.Column, f.Value); ok {
				tag := colorTag(c)
				sb.WriteString(tag + cellText(cell, width, tag) + "[-:-]")
			} else {
				sb.WriteString(cellText(cell, width, "[-:-]"))
			}
		}
		sb.WriteString("\n")
	}

	v.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetScrollable(true).
		SetText(sb.String())
	v.text.SetBorder(true).
		SetTitle(fmt.Sprintf(" Record %d ", v.record.Index)).
		SetTitleAlign(tview.AlignLeft)
	v.text.SetInputCapture(v.handleInput)

	v.statusLine = tview.NewTextView().
		SetDynamicColors(true).
		SetText(detailStatusKeys)

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.text, 0, 1, true).
		AddItem(v.statusLine, 1, 0, false)
}

func (v *detailView) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEscape:
		v.close()
		return nil
	case event.Key() == tcell.KeyRune && event.Rune() == 'c':
		v.copy()
		return nil
	}
	return event
}

func (v *detailView) close() {
	v.app.pages.RemovePage("detail")
	v.app.tviewApp.SetFocus(v.app.table)
}

// copy puts the record on the clipboard as "column: value" lines
func (v *detailView) copy() {
	text := formatRecord(model.NewRecordView(v.record).Fields)
	if err := v.app.copyText(text); err != nil {
		v.app.logger.Warn("copy failed", "record", v.record.Index, "error", err)
		v.statusLine.SetText(fmt.Sprintf("%s  [red]Copy failed: %v[-]", detailStatusKeys, err))
		return
	}
	v.statusLine.SetText(detailStatusKeys + "  [green]Copied[-]")
}

// countsView shows how many records hold each value of a category column
type countsView struct {
	app        *TUIApp
	columns    []string
	current    int
	table      *tview.Table
	statusLine *tview.TextView
	layout     *tview.Flex
}

// showCounts opens the counts of the selected column, or of the first category
// column when the selection is not a category
func (app *TUIApp) showCounts() {
	columns := app.categoryColumns()
	if len(columns) == 0 {
		app.setStatus("[red]No category columns[-]")
		return
	}

	current := 0
	_, col := app.table.GetSelection()
	if names := app.grid.Header().Names(); col >= 0 && col < len(names) {
		for i, name := range columns {
			if name == names[col] {
				current = i
			}
		}
	}

	v := &countsView{app: app, columns: columns, current: current}
	v.build()
	app.pages.AddPage("counts", v.layout, true, true)
	app.tviewApp.SetFocus(v.table)
}

// categoryColumns lists the category columns in header order
func (app *TUIApp) categoryColumns() []string {
	catalog := app.grid.Catalog()
	var columns []string
	for _, name := range app.grid.Header().Names() {
		if catalog.TypeOf(name) == model.TypeCategory {
			columns = append(columns, name)
		}
	}
	return columns
}

func (v *countsView) build() {
	v.table = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	v.table.SetBorder(true).
		SetTitleAlign(tview.AlignLeft)
	v.table.SetInputCapture(v.handleInput)

	v.statusLine = tview.NewTextView().
		SetDynamicColors(true).
		SetText(countsStatusKeys)

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.table, 0, 1, true).
		AddItem(v.statusLine, 1, 0, false)
	v.render()
}

func (v *countsView) render() {
	column := v.columns[v.current]
	v.table.Clear()
	v.table.SetTitle(fmt.Sprintf(" Counts of %s (%d/%d) ", tview.Escape(column), v.current+1, len(v.columns)))

	for col, title := range []string{"Value", "Count", ""} {
		v.table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}

	counts, err := v.app.grid.CategoryCounts(column)
	if err != nil {
		v.table.SetCell(1, 0, tview.NewTableCell(fmt.Sprintf("Error: %v", err)).
			SetTextColor(tcell.ColorRed))
		return
	}

	maxCount := model.MaxCount(counts)
	for i, c := range counts {
		value := tview.NewTableCell(tview.Escape(c.Value))
		if color, ok := v.app.grid.CellColor(column, c.Value); ok {
			value.SetBackgroundColor(tcellColor(color.Over(cellBackground))).
				SetTextColor(tcell.ColorBlack)
		}
		bar := 0
		if maxCount > 0 {
			bar = c.Count * countBarWidth / maxCount
		}
		v.table.SetCell(i+1, 0, value)
		v.table.SetCell(i+1, 1, tview.NewTableCell(fmt.Sprintf("%d", c.Count)).SetAlign(tview.AlignRight))
		v.table.SetCell(i+1, 2, tview.NewTableCell(strings.Repeat("█", bar)).
			SetTextColor(tcell.ColorDarkCyan).
			SetExpansion(1))
	}
}

func (v *countsView) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		v.app.pages.RemovePage("counts")
		v.app.tviewApp.SetFocus(v.app.table)
		return nil
	case tcell.KeyLeft:
		v.current = (v.current + len(v.columns) - 1) % len(v.columns)
		v.render()
		return nil
	case tcell.KeyRight:
		v.current = (v.current + 1) % len(v.columns)
		v.render()
		return nil
	}
	return event
}
