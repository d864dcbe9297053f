package service

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/hangxie/csv-browser/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates *template.Template

func init() {
	var err error
	templates, err = template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		panic(fmt.Sprintf("Failed to parse templates: %v", err))
	}
}

// gridView is the template data of the grid page
type gridView struct {
	Source    string
	Keyword   string
	Query     string
	Total     int
	Visible   int
	Sort      model.SortState
	Headers   []headerView
	Rows      []rowView
	Category  []linkView
	LoadedAt  string
	Coercions int
}

// linkView is a named link, hrefs are built with every path segment escaped
type linkView struct {
	Name string
	Href string
}

type headerView struct {
	Name  string
	Type  model.ColumnType
	Arrow string
	Href  string
}

type rowView struct {
	Index int
	Href  string
	Cells []cellView
}

type cellView struct {
	Segments []model.Segment
	Missing  bool
	Style    template.CSS
}

type detailView struct {
	Index  int
	Back   string
	Fields []model.Field
}

type countView struct {
	Value   string
	Count   int
	Percent int
	Style   template.CSS
}

type countsView struct {
	Column string
	Back   string
	Counts []countView
}

// SetupWebUIRoutes configures all web UI routes
func (s *GridService) SetupWebUIRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleGridPage).Methods("GET")
	r.HandleFunc("/ui/records/{index}", s.handleDetailPage).Methods("GET")
	r.HandleFunc("/ui/counts/{column}", s.handleCountsPage).Methods("GET")
	r.HandleFunc("/ui/reload", s.handleReloadPage).Methods("POST")

	// Catch-all for static files and other resources (favicon, service worker, etc.)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Silently return 404 for common browser requests
		w.WriteHeader(http.StatusNotFound)
	})
}

// gridQuery encodes a sort state and keyword as grid page query parameters
func gridQuery(state model.SortState, keyword string) string {
	values := url.Values{}
	if state.Column != "" && state.Direction != model.Unsorted {
		values.Set("sort", state.Column)
		values.Set("dir", state.Direction.String())
	}
	if keyword != "" {
		values.Set("q", keyword)
	}
	return values.Encode()
}

func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

func arrow(d model.SortDirection) string {
	switch d {
	case model.Ascending:
		return "▲"
	case model.Descending:
		return "▼"
	default:
		return ""
	}
}

func colorStyle(c *model.Color) template.CSS {
	if c == nil {
		return ""
	}
	return template.CSS("background-color: " + c.CSS())
}

// parseGridQuery reads the sort, dir and q parameters of the grid page,
// invalid values fall back to an unsorted grid
func parseGridQuery(r *http.Request, header model.Header) (model.SortState, string) {
	query := r.URL.Query()
	keyword := query.Get("q")

	column := query.Get("sort")
	direction, err := model.ParseSortDirection(query.Get("dir"))
	if err != nil || column == "" || direction == model.Unsorted || !header.Has(column) {
		return model.SortState{}, keyword
	}
	return model.SortState{Column: column, Direction: direction}, keyword
}

// handleGridPage renders the grid for the sort and search in the query string
func (s *GridService) handleGridPage(w http.ResponseWriter, r *http.Request) {
	var data gridView
	s.withGrid(func(g *model.Grid) {
		state, keyword := parseGridQuery(r, g.Header())
		data = buildGridView(g, state, keyword)
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.ExecuteTemplate(w, "grid.html", data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func buildGridView(g *model.Grid, state model.SortState, keyword string) gridView {
	info := g.Info()
	query := gridQuery(state, keyword)
	catalog := g.Catalog()

	data := gridView{
		Source:    info.Source,
		Keyword:   keyword,
		Query:     query,
		Total:     info.NumRecords,
		Sort:      state,
		Coercions: info.CoercionErrors,
		LoadedAt:  info.LoadedAt.Format(time.RFC3339),
	}

	for _, name := range g.Header().Names() {
		data.Headers = append(data.Headers, headerView{
			Name:  name,
			Type:  catalog.TypeOf(name),
			Arrow: arrow(state.DirectionOf(name)),
			Href:  withQuery("/", gridQuery(state.Toggle(name), keyword)),
		})
	}

	rows := g.Project(state, keyword)
	data.Visible = len(rows)
	data.Rows = make([]rowView, len(rows))
	for i, row := range rows {
		rv := rowView{
			Index: row.Index,
			Href:  withQuery(fmt.Sprintf("/ui/records/%d", row.Index), query),
			Cells: make([]cellView, len(row.Cells)),
		}
		for j, cell := range row.Cells {
			rv.Cells[j] = cellView{
				Segments: cell.Highlight.Segments(),
				Missing:  cell.Missing,
				Style:    colorStyle(cell.Color),
			}
		}
		data.Rows[i] = rv
	}

	stats := g.Statistics()
	for _, column := range catalog.Columns(model.TypeCategory) {
		if _, ok := stats.CategoriesFor(column); ok {
			data.Category = append(data.Category, linkView{
				Name: column,
				Href: withQuery("/ui/counts/"+url.PathEscape(column), query),
			})
		}
	}
	return data
}

// handleDetailPage renders every field of one record
func (s *GridService) handleDetailPage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "Invalid record index", http.StatusBadRequest)
		return
	}

	var record model.Record
	s.withGrid(func(g *model.Grid) {
		record, err = g.OnRowIndex(index)
	})
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	data := detailView{
		Index:  record.Index,
		Back:   withQuery("/", r.URL.RawQuery),
		Fields: model.NewRecordView(record).Fields,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = templates.ExecuteTemplate(w, "detail.html", data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleCountsPage renders the record count per value of a category column
func (s *GridService) handleCountsPage(w http.ResponseWriter, r *http.Request) {
	column, err := pathVar(r, "column")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data := countsView{
		Column: column,
		Back:   withQuery("/", r.URL.RawQuery),
	}
	s.withGrid(func(g *model.Grid) {
		var counts []model.CategoryCount
		counts, err = g.CategoryCounts(column)
		if err != nil {
			return
		}
		maxCount := model.MaxCount(counts)
		for _, c := range counts {
			cv := countView{Value: c.Value, Count: c.Count}
			if maxCount > 0 {
				cv.Percent = c.Count * 100 / maxCount
			}
			if color, ok := g.CellColor(column, c.Value); ok {
				cv.Style = colorStyle(&color)
			}
			data.Counts = append(data.Counts, cv)
		}
	})
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = templates.ExecuteTemplate(w, "counts.html", data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleReloadPage reloads the source and redirects to a fresh grid
func (s *GridService) handleReloadPage(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		http.Error(w, err.Error(), reloadStatus(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CreateWebUIRouter creates a router configured for the web UI and the JSON API
func CreateWebUIRouter(s *GridService) *mux.Router {
	r := newRouter()
	s.SetupRoutes(r)
	s.SetupWebUIRoutes(r)
	r.Use(CORSMiddleware)
	r.Use(LoggingMiddleware(s.logger))
	return r
}

// openBrowser tries to open the URL in the default browser
func openBrowser(url string) error {
	if testing.Testing() {
		// do not launch browser under unit test
		return nil
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}

// StartWebUIServer starts the web UI server and stops it when ctx is done
func StartWebUIServer(ctx context.Context, service *GridService, addr string) error {
	r := CreateWebUIRouter(service)

	// Construct the full URL
	url := fmt.Sprintf("http://localhost%s", addr)

	fmt.Printf("Starting CSV Browser Web UI on %s\n", addr)
	fmt.Printf("Opening browser to: %s\n", url)
	fmt.Println()

	// Open browser in a goroutine with a small delay to ensure server is ready
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := openBrowser(url); err != nil {
			fmt.Printf("Note: Could not automatically open browser: %v\n", err)
			fmt.Printf("Please open your browser and navigate to: %s\n", url)
		}
	}()

	return serve(ctx, &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second})
}
