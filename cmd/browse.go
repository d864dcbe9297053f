package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// BrowseCmd is a kong command for browse
type BrowseCmd struct {
	URI string `arg:"" predictor:"file" help:"Path or http(s) URL of the CSV source."`
	SourceOption
	LogOption
}

// Run does actual browse job
func (b BrowseCmd) Run() error {
	// the terminal belongs to the TUI, logs only go to a log file
	logger, closeLog, err := b.logger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	grid, err := b.newGrid(logger)
	if err != nil {
		return err
	}
	app := NewTUIApp(grid, b.source(b.URI), logger)

	modal := tview.NewModal().
		SetText(fmt.Sprintf("Loading...\n%s\n\nPlease wait...\n\nPress ESC or Ctrl+C to cancel", b.URI)).
		SetTextColor(tcell.ColorYellow)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelled := false
	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyCtrlC {
			cancelled = true
			cancel()
			app.tviewApp.Stop()
			return nil
		}
		return event
	})

	app.pages.AddPage("loading", modal, true, true)
	app.tviewApp.SetRoot(app.pages, true)

	go func() {
		raw, err := app.source.Read(ctx)
		if ctx.Err() != nil {
			return
		}
		app.tviewApp.QueueUpdateDraw(func() {
			app.finishLoad(raw, err)
		})
	}()

	err = app.tviewApp.Run()
	if cancelled {
		return nil
	}
	return err
}

// finishLoad swaps the loading modal for the grid, or for an error that exits
func (app *TUIApp) finishLoad(raw string, err error) {
	if err == nil {
		err = app.load(raw)
	}
	app.pages.RemovePage("loading")
	if err != nil {
		app.logger.Error("load failed", "source", app.source.URI, "error", err)
		errorModal := tview.NewModal().
			SetText(fmt.Sprintf("Error loading %s:\n%v\n\nPress ESC to exit", app.source.URI, err)).
			SetTextColor(tcell.ColorRed).
			AddButtons([]string{"Exit"}).
			SetDoneFunc(func(buttonIndex int, buttonLabel string) {
				app.tviewApp.Stop()
			})
		app.pages.AddPage("error", errorModal, true, true)
		return
	}

	app.logger.Info("dataset loaded", "source", app.source.URI, "records", len(app.grid.Records()))
	app.pages.AddPage("main", app.mainLayout, true, true)
	app.tviewApp.SetFocus(app.table)
}
