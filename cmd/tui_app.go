package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"

	"github.com/hangxie/csv-browser/model"
	"github.com/hangxie/csv-browser/service"
)

const (
	// maxCellWidth is the display width a table cell is truncated to
	maxCellWidth = 32

	mainStatusKeys = " [yellow]Keys:[-] ←↑↓→=move, Enter=sort/detail, /=search, g=counts, r=reload, q=quit"
)

// cellBackground is the color encoded cells are blended over
var cellBackground = colorful.Color{R: 1, G: 1, B: 1}

// TUIApp represents the terminal grid. Every grid call happens on the tview event loop.
type TUIApp struct {
	tviewApp    *tview.Application
	pages       *tview.Pages
	mainLayout  *tview.Flex
	headerView  *tview.TextView
	searchInput *tview.InputField
	table       *tview.Table
	statusLine  *tview.TextView

	grid     *model.Grid
	source   service.Source
	logger   *slog.Logger
	rows     []model.Row
	copyText func(string) error
}

// NewTUIApp creates a new TUIApp for a grid fed from source
func NewTUIApp(grid *model.Grid, source service.Source, logger *slog.Logger) *TUIApp {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	app := &TUIApp{
		tviewApp: tview.NewApplication(),
		pages:    tview.NewPages(),
		grid:     grid,
		source:   source,
		logger:   logger,
		copyText: clipboard.WriteAll,
	}
	app.createMainView()
	return app
}

func (app *TUIApp) createMainView() {
	app.headerView = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)
	app.headerView.SetBorder(true).
		SetTitle(" Dataset ").
		SetTitleAlign(tview.AlignLeft)

	app.searchInput = tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldBackgroundColor(tcell.ColorDarkSlateGray)
	app.searchInput.SetChangedFunc(app.onSearchChanged)
	app.searchInput.SetDoneFunc(func(key tcell.Key) {
		app.tviewApp.SetFocus(app.table)
	})

	app.table = tview.NewTable().
		SetBorders(false).
		SetSeparator(tview.Borders.Vertical).
		SetSelectable(true, true).
		SetFixed(1, 0)
	app.table.SetBorder(true).
		SetTitleAlign(tview.AlignLeft)
	app.table.SetSelectedFunc(app.onCellSelected)

	app.statusLine = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	app.mainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(app.headerView, 4, 0, false).
		AddItem(app.searchInput, 1, 0, false).
		AddItem(app.table, 0, 1, true).
		AddItem(app.statusLine, 1, 0, false)
	app.mainLayout.SetInputCapture(app.handleMainInput)
}

// handleMainInput handles the keys of the main view, runes are left to the search input while it has focus
func (app *TUIApp) handleMainInput(event *tcell.EventKey) *tcell.EventKey {
	if app.searchInput.HasFocus() {
		return event
	}
	switch event.Key() {
	case tcell.KeyEscape:
		app.tviewApp.Stop()
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case '/':
			app.tviewApp.SetFocus(app.searchInput)
			return nil
		case 'g':
			app.showCounts()
			return nil
		case 'r':
			app.reload()
			return nil
		case 'q':
			app.tviewApp.Stop()
			return nil
		}
	}
	return event
}

// load replaces the dataset with raw text and redraws the grid
func (app *TUIApp) load(raw string) error {
	if err := app.grid.LoadSource(app.source.URI, raw); err != nil {
		return err
	}
	app.searchInput.SetText("")
	app.rows = app.grid.Rows()
	app.render()
	return nil
}

func (app *TUIApp) onSearchChanged(text string) {
	if !app.grid.Loaded() {
		return
	}
	app.rows = app.grid.OnSearchInput(text)
	app.render()
}

// onCellSelected is a header click on row 0 and a row click below it
func (app *TUIApp) onCellSelected(row, column int) {
	if row == 0 {
		names := app.grid.Header().Names()
		if column < 0 || column >= len(names) {
			return
		}
		rows, err := app.grid.OnHeaderClick(names[column])
		if err != nil {
			app.setStatus(fmt.Sprintf("[red]%v[-]", err))
			return
		}
		app.rows = rows
		app.render()
		return
	}

	if row-1 < len(app.rows) {
		record := app.grid.OnRowClick(app.rows[row-1].Record)
		app.showDetail(record)
	}
}

// render redraws the header, the table and the status line from app.rows
func (app *TUIApp) render() {
	app.renderHeader()

	selectedRow, selectedColumn := app.table.GetSelection()
	app.table.Clear()

	state := app.grid.SortState()
	catalog := app.grid.Catalog()
	for col, name := range app.grid.Header().Names() {
		text := tview.Escape(runewidth.Truncate(name, maxCellWidth, "…"))
		switch state.DirectionOf(name) {
		case model.Ascending:
			text += " ▲"
		case model.Descending:
			text += " ▼"
		}
		if catalog.TypeOf(name) != model.TypeText {
			text += fmt.Sprintf(" [gray](%s)[-]", catalog.TypeOf(name))
		}
		app.table.SetCell(0, col, tview.NewTableCell(text).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(true))
	}

	for i, row := range app.rows {
		for col, cell := range row.Cells {
			restore := "[-:-]"
			if cell.Color != nil {
				restore = colorTag(*cell.Color)
			}
			tc := tview.NewTableCell(cellText(cell, maxCellWidth, restore)).
				SetReference(row.Index)
			if cell.Color != nil {
				tc.SetBackgroundColor(tcellColor(cell.Color.Over(cellBackground))).
					SetTextColor(tcell.ColorBlack)
			}
			app.table.SetCell(i+1, col, tc)
		}
	}

	app.table.SetTitle(fmt.Sprintf(" Records (%d of %d) ", len(app.rows), len(app.grid.Records())))
	if selectedRow > len(app.rows) {
		selectedRow = len(app.rows)
	}
	app.table.Select(max(selectedRow, 0), max(selectedColumn, 0))
	app.setStatus("")
}

func (app *TUIApp) renderHeader() {
	info := app.grid.Info()

	var header strings.Builder
	header.WriteString(fmt.Sprintf("[yellow]Source:[-] %s  ", tview.Escape(filepath.Base(info.Source))))
	header.WriteString(fmt.Sprintf("[yellow]Records:[-] %d  ", info.NumRecords))
	header.WriteString(fmt.Sprintf("[yellow]Columns:[-] %d  ", len(info.Columns)))
	if !info.LoadedAt.IsZero() {
		header.WriteString(fmt.Sprintf("[yellow]Loaded:[-] %s", info.LoadedAt.Format(time.DateTime)))
	}

	header.WriteString("\n")
	if info.SortColumn != "" {
		header.WriteString(fmt.Sprintf("[yellow]Sort:[-] %s %s  ", tview.Escape(info.SortColumn), info.SortDirection))
	}
	if info.CoercionErrors > 0 {
		header.WriteString(fmt.Sprintf("[red]Non-numeric values:[-] %d", info.CoercionErrors))
	}
	app.headerView.SetText(header.String())
}

// setStatus shows a message after the key help
func (app *TUIApp) setStatus(message string) {
	if message == "" {
		app.statusLine.SetText(mainStatusKeys)
		return
	}
	app.statusLine.SetText(mainStatusKeys + "  " + message)
}

// reload reads the source in the background and loads it on the event loop
func (app *TUIApp) reload() {
	app.setStatus("[yellow]Reloading...[-]")
	go func() {
		raw, err := app.source.Read(context.Background())
		app.tviewApp.QueueUpdateDraw(func() {
			app.finishReload(raw, err)
		})
	}()
}

func (app *TUIApp) finishReload(raw string, err error) {
	if err == nil {
		err = app.load(raw)
	}
	if err != nil {
		app.logger.Error("reload failed", "source", app.source.URI, "error", err)
		app.showError("Reload failed", err)
		return
	}
	app.setStatus("[green]Reloaded[-]")
}

// showError shows a modal that is dismissed back to the current view
func (app *TUIApp) showError(title string, err error) {
	errorModal := tview.NewModal().
		SetText(fmt.Sprintf("%s:\n%v", title, err)).
		SetTextColor(tcell.ColorRed).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			app.pages.RemovePage("error")
		})
	app.pages.AddPage("error", errorModal, true, true)
}

// cellText renders a cell with highlighted matches, truncated to width display cells.
// restore is the color tag written after every match.
func cellText(cell model.Cell, width int, restore string) string {
	var sb strings.Builder
	for _, seg := range truncateSegments(cell.Highlight.Segments(), width) {
		if seg.Match {
			sb.WriteString("[black:yellow]")
			sb.WriteString(tview.Escape(seg.Text))
			sb.WriteString(restore)
		} else {
			sb.WriteString(tview.Escape(seg.Text))
		}
	}
	return sb.String()
}

// colorTag is the tview color tag of an encoded cell
func colorTag(c model.Color) string {
	return fmt.Sprintf("[black:%s]", c.Over(cellBackground).Hex())
}

// truncateSegments cuts segments to width display cells, ending with an ellipsis when cut
func truncateSegments(segments []model.Segment, width int) []model.Segment {
	total := 0
	for _, seg := range segments {
		total += runewidth.StringWidth(seg.Text)
	}
	if total <= width {
		return segments
	}

	var out []model.Segment
	remaining := width - 1
	for _, seg := range segments {
		if remaining <= 0 {
			break
		}
		w := runewidth.StringWidth(seg.Text)
		if w <= remaining {
			out = append(out, seg)
			remaining -= w
			continue
		}
		out = append(out, model.Segment{Text: runewidth.Truncate(seg.Text, remaining, ""), Match: seg.Match})
		break
	}
	return append(out, model.Segment{Text: "…"})
}

func tcellColor(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
