package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangxie/csv-browser/model"
	"github.com/hangxie/csv-browser/service"
)

func newTestTUIApp(t *testing.T, catalog model.TypeCatalog) *TUIApp {
	t.Helper()
	app := NewTUIApp(model.NewGrid(catalog), service.Source{URI: writeFile(t, "langs.csv", testCSV)}, nil)
	require.NoError(t, app.load(testCSV))
	return app
}

func langCatalog() model.TypeCatalog {
	return model.TypeCatalog{"pop": model.TypeNumber, "level": model.TypeCategory}
}

// tableColumn returns the text of a column below the header row
func tableColumn(app *TUIApp, col int) []string {
	var values []string
	for row := 1; row < app.table.GetRowCount(); row++ {
		values = append(values, app.table.GetCell(row, col).Text)
	}
	return values
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func Test_TUIApp_Load(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())

	require.Equal(t, 4, app.table.GetRowCount())
	require.Equal(t, "lang", app.table.GetCell(0, 0).Text)
	require.Equal(t, "pop [gray](number)[-]", app.table.GetCell(0, 2).Text)
	require.Equal(t, []string{"Go", "Rust", "Zig"}, tableColumn(app, 0))
	require.Contains(t, app.headerView.GetText(true), "Records: 3")
	require.Contains(t, app.statusLine.GetText(true), "Enter=sort/detail")

	zigPop := app.table.GetCell(3, 2)
	assert.Equal(t, tcell.NewRGBColor(255, 196, 196), zigPop.BackgroundColor)
	assert.Equal(t, tcell.ColorBlack, zigPop.Color)
	assert.Equal(t, 2, zigPop.GetReference())
}

func Test_TUIApp_LoadError(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())

	err := app.load("")
	require.ErrorIs(t, err, model.ErrNoHeader)
	require.Equal(t, []string{"Go", "Rust", "Zig"}, tableColumn(app, 0))
}

func Test_TUIApp_HeaderClick(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())

	app.onCellSelected(0, 2)
	require.Equal(t, []string{"Rust", "Go", "Zig"}, tableColumn(app, 0))
	require.Contains(t, app.table.GetCell(0, 2).Text, "▲")
	require.Contains(t, app.headerView.GetText(true), "Sort: pop asc")

	app.onCellSelected(0, 2)
	require.Equal(t, []string{"Zig", "Go", "Rust"}, tableColumn(app, 0))
	require.Contains(t, app.table.GetCell(0, 2).Text, "▼")

	app.onCellSelected(0, 2)
	require.Equal(t, []string{"Go", "Rust", "Zig"}, tableColumn(app, 0))
	require.NotContains(t, app.table.GetCell(0, 2).Text, "▲")
	require.NotContains(t, app.table.GetCell(0, 2).Text, "▼")

	app.onCellSelected(0, 99)
	require.Equal(t, model.SortState{}, app.grid.SortState())
}

func Test_TUIApp_Search(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())

	app.onSearchChanged("sys")
	require.Equal(t, 2, app.table.GetRowCount())
	require.Equal(t, "[black:yellow]sys[-:-]tems", app.table.GetCell(1, 1).Text)
	require.Contains(t, app.table.GetTitle(), "1 of 3")

	app.onSearchChanged("nothing")
	require.Equal(t, 1, app.table.GetRowCount())

	app.onSearchChanged("")
	require.Equal(t, []string{"Go", "Rust", "Zig"}, tableColumn(app, 0))
}

func Test_TUIApp_SearchKeepsSort(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())

	app.onCellSelected(0, 2)
	app.onSearchChanged("infra")
	require.Equal(t, []string{"Rust", "Go"}, tableColumn(app, 0))
}

func Test_TUIApp_RowClick(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())

	app.onCellSelected(2, 0)
	require.True(t, app.pages.HasPage("detail"))

	record, ok := app.grid.Detail()
	require.True(t, ok)
	require.Equal(t, "Rust", record.Value("lang"))

	app.onCellSelected(10, 0)
	record, _ = app.grid.Detail()
	require.Equal(t, "Rust", record.Value("lang"))
}

func Test_DetailView(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())
	app.onSearchChanged("Go")
	record, err := app.grid.OnRowIndex(0)
	require.NoError(t, err)

	v := &detailView{app: app, record: record}
	v.build()

	text := v.text.GetText(false)
	require.Contains(t, text, "[black:yellow]Go[-:-]")
	require.Contains(t, v.text.GetText(true), "level  B")
	require.Contains(t, v.text.GetTitle(), "Record 0")
}

func Test_DetailView_ColoredMatch(t *testing.T) {
	app := newTestTUIApp(t, model.TypeCatalog{"use": model.TypeCategory})
	app.onSearchChanged("fr")
	record, err := app.grid.OnRowIndex(0)
	require.NoError(t, err)

	v := &detailView{app: app, record: record}
	v.build()

	c, ok := app.grid.CellColor("use", "infra")
	require.True(t, ok)
	tag := colorTag(c)
	require.Contains(t, v.text.GetText(false), tag+"in[black:yellow]fr"+tag+"a[-:-]",
		"the cell color resumes after a match")
	require.Contains(t, v.text.GetText(true), "use    infra")
}

func Test_DetailView_WideLabels(t *testing.T) {
	app := NewTUIApp(model.NewGrid(nil), service.Source{URI: "wide.csv"}, nil)
	require.NoError(t, app.load("名前,n\n東京,1\n"))

	record, err := app.grid.OnRowIndex(0)
	require.NoError(t, err)
	v := &detailView{app: app, record: record}
	v.build()

	text := v.text.GetText(true)
	require.Contains(t, text, "名前  東京\n")
	require.Contains(t, text, "n     1\n", "labels are padded to display width")
}

func Test_DetailView_MissingField(t *testing.T) {
	app := NewTUIApp(model.NewGrid(nil), service.Source{URI: "short.csv"}, nil)
	require.NoError(t, app.load("a,b\n1\n"))

	record, err := app.grid.OnRowIndex(0)
	require.NoError(t, err)
	v := &detailView{app: app, record: record}
	v.build()
	require.Contains(t, v.text.GetText(true), "b  (missing)")
}

func Test_DetailView_Copy(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())
	record, err := app.grid.OnRowIndex(2)
	require.NoError(t, err)

	var copied string
	app.copyText = func(s string) error {
		copied = s
		return nil
	}

	v := &detailView{app: app, record: record}
	v.build()
	require.Nil(t, v.handleInput(runeKey('c')))
	require.Equal(t, "lang: Zig\nuse: systems\npop: 95\nlevel: B\n", copied)
	require.Contains(t, v.statusLine.GetText(true), "Copied")

	app.copyText = func(string) error { return errors.New("no clipboard") }
	v.handleInput(runeKey('c'))
	require.Contains(t, v.statusLine.GetText(true), "Copy failed: no clipboard")
}

func Test_DetailView_Close(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())
	app.onCellSelected(1, 0)
	require.True(t, app.pages.HasPage("detail"))

	name, _ := app.pages.GetFrontPage()
	require.Equal(t, "detail", name)

	record, _ := app.grid.Detail()
	v := &detailView{app: app, record: record}
	v.build()
	require.Nil(t, v.handleInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	require.False(t, app.pages.HasPage("detail"))

	event := runeKey('x')
	require.Equal(t, event, v.handleInput(event))
}

func Test_CountsView(t *testing.T) {
	app := newTestTUIApp(t, model.TypeCatalog{"use": model.TypeCategory, "level": model.TypeCategory})

	v := &countsView{app: app, columns: app.categoryColumns()}
	v.build()
	require.Equal(t, []string{"use", "level"}, v.columns)
	require.Contains(t, v.table.GetTitle(), "Counts of use (1/2)")
	require.Equal(t, "infra", v.table.GetCell(1, 0).Text)
	require.Equal(t, "2", v.table.GetCell(1, 1).Text)
	require.Equal(t, strings.Repeat("█", 40), v.table.GetCell(1, 2).Text)
	require.Equal(t, strings.Repeat("█", 20), v.table.GetCell(2, 2).Text)

	v.handleInput(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	require.Contains(t, v.table.GetTitle(), "Counts of level (2/2)")
	require.Equal(t, "B", v.table.GetCell(1, 0).Text)

	v.handleInput(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	require.Contains(t, v.table.GetTitle(), "Counts of use")

	v.handleInput(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	require.Contains(t, v.table.GetTitle(), "Counts of level")
}

func Test_TUIApp_ShowCounts(t *testing.T) {
	t.Run("Selected category column", func(t *testing.T) {
		app := newTestTUIApp(t, model.TypeCatalog{"use": model.TypeCategory, "level": model.TypeCategory})
		app.table.Select(1, 3)
		app.showCounts()
		require.True(t, app.pages.HasPage("counts"))
	})

	t.Run("No category columns", func(t *testing.T) {
		app := newTestTUIApp(t, nil)
		app.showCounts()
		require.False(t, app.pages.HasPage("counts"))
		require.Contains(t, app.statusLine.GetText(true), "No category columns")
	})
}

func Test_TUIApp_HandleMainInput(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())

	event := runeKey('x')
	require.Equal(t, event, app.handleMainInput(event))

	require.Nil(t, app.handleMainInput(runeKey('g')))
	require.True(t, app.pages.HasPage("counts"))

	require.Nil(t, app.handleMainInput(runeKey('q')))

	require.Nil(t, app.handleMainInput(runeKey('/')))
	require.True(t, app.searchInput.HasFocus())

	typed := runeKey('q')
	require.Equal(t, typed, app.handleMainInput(typed))
}

func Test_TUIApp_FinishReload(t *testing.T) {
	app := newTestTUIApp(t, langCatalog())
	app.onCellSelected(0, 2)

	app.finishReload("lang,pop\nC,1\n", nil)
	require.Equal(t, []string{"C"}, tableColumn(app, 0))
	require.Equal(t, model.SortState{}, app.grid.SortState())
	require.Contains(t, app.statusLine.GetText(true), "Reloaded")

	app.finishReload("", errors.New("connection refused"))
	require.True(t, app.pages.HasPage("error"))
	require.Equal(t, []string{"C"}, tableColumn(app, 0))
}

func Test_TUIApp_FinishLoad(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		app := NewTUIApp(model.NewGrid(langCatalog()), service.Source{URI: "langs.csv"}, nil)
		app.pages.AddPage("loading", app.statusLine, true, true)

		app.finishLoad(testCSV, nil)
		require.False(t, app.pages.HasPage("loading"))
		require.True(t, app.pages.HasPage("main"))
		require.Equal(t, 4, app.table.GetRowCount())
	})

	t.Run("Read error", func(t *testing.T) {
		app := NewTUIApp(model.NewGrid(nil), service.Source{URI: "langs.csv"}, nil)
		app.pages.AddPage("loading", app.statusLine, true, true)

		app.finishLoad("", errors.New("no such file"))
		require.False(t, app.pages.HasPage("loading"))
		require.True(t, app.pages.HasPage("error"))
		require.False(t, app.pages.HasPage("main"))
	})

	t.Run("Parse error", func(t *testing.T) {
		app := NewTUIApp(model.NewGrid(nil), service.Source{URI: "empty.csv"}, nil)
		app.finishLoad("", nil)
		require.True(t, app.pages.HasPage("error"))
	})
}

func Test_CellText(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		keyword  string
		width    int
		restore  string
		expected string
	}{
		{name: "Plain", value: "Go", width: 32, expected: "Go"},
		{name: "Empty", value: "", width: 32, expected: ""},
		{name: "Highlight", value: "systems", keyword: "sys", width: 32, expected: "[black:yellow]sys[-:-]tems"},
		{name: "Every match", value: "abab", keyword: "b", width: 32, expected: "a[black:yellow]b[-:-]a[black:yellow]b[-:-]"},
		{name: "Truncated", value: "abcdefgh", width: 5, expected: "abcd…"},
		{name: "Truncated inside match", value: "abcdefgh", keyword: "cdef", width: 5, expected: "ab[black:yellow]cd[-:-]…"},
		{name: "Escaped tags", value: "[red]", width: 32, expected: "[red[]"},
		{name: "Restore cell color", value: "infra", keyword: "fr", width: 32, restore: "[black:#ff8080]", expected: "in[black:yellow]fr[black:#ff8080]a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := tt.restore
			if restore == "" {
				restore = "[-:-]"
			}
			cell := model.Cell{Value: tt.value, Highlight: model.Highlight(tt.value, tt.keyword)}
			require.Equal(t, tt.expected, cellText(cell, tt.width, restore))
		})
	}
}

func Test_TcellColor(t *testing.T) {
	require.Equal(t, tcell.NewRGBColor(255, 0, 0), tcellColor(colorful.Color{R: 1, G: 0, B: 0}))
	require.Equal(t, tcell.NewRGBColor(255, 255, 255), tcellColor(cellBackground))
}
