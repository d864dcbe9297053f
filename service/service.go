package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/hangxie/csv-browser/model"
)

// GridService owns a grid loaded from a source and serves it over HTTP.
// Every grid access is serialized by mu.
type GridService struct {
	mu     sync.Mutex
	grid   *model.Grid
	source Source
	logger *slog.Logger
}

// RowsResponse is the body of every endpoint returning grid rows
type RowsResponse struct {
	SortColumn    string      `json:"sortColumn,omitempty"`
	SortDirection string      `json:"sortDirection"`
	Keyword       string      `json:"keyword"`
	Count         int         `json:"count"`
	Rows          []model.Row `json:"rows"`
}

// SearchRequest is the body of PUT /search
type SearchRequest struct {
	Keyword string `json:"keyword"`
}

// NewGridService reads the source and loads it into grid
func NewGridService(ctx context.Context, source Source, grid *model.Grid, logger *slog.Logger) (*GridService, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &GridService{
		grid:   grid,
		source: source,
		logger: logger,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload fetches the source again and replaces the dataset
func (s *GridService) Reload(ctx context.Context) error {
	raw, err := s.source.Read(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.LoadSource(s.source.URI, raw)
}

// withGrid runs fn with exclusive access to the grid
func (s *GridService) withGrid(fn func(g *model.Grid)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.grid)
}

// newRouter matches routes on the escaped path so that route variables keep
// encoded slashes, handlers decode them with pathVar
func newRouter() *mux.Router {
	return mux.NewRouter().UseEncodedPath()
}

// CreateRouter creates a new router with all routes configured
// If quiet is true, disables logging middleware (useful for embedded servers)
func CreateRouter(s *GridService, quiet bool) *mux.Router {
	r := newRouter()
	s.SetupRoutes(r)
	r.Use(CORSMiddleware)
	if !quiet {
		r.Use(LoggingMiddleware(s.logger))
	}
	return r
}

// SetupRoutes configures all HTTP routes
func (s *GridService) SetupRoutes(r *mux.Router) {
	// Dataset endpoints
	r.HandleFunc("/info", s.handleInfo).Methods("GET")
	r.HandleFunc("/columns", s.handleColumns).Methods("GET")
	r.HandleFunc("/reload", s.handleReload).Methods("POST")

	// Statistics endpoints
	r.HandleFunc("/stats", s.handleStats).Methods("GET")
	r.HandleFunc("/stats/{column}/counts", s.handleCategoryCounts).Methods("GET")

	// Row endpoints
	r.HandleFunc("/rows", s.handleRows).Methods("GET")
	r.HandleFunc("/view", s.handleView).Methods("GET")
	r.HandleFunc("/sort/{column}", s.handleHeaderClick).Methods("POST")
	r.HandleFunc("/search", s.handleSearch).Methods("PUT")

	// Record endpoints
	r.HandleFunc("/records/{index}", s.handleRecord).Methods("GET")
	r.HandleFunc("/detail", s.handleDetail).Methods("GET")
}

// handleInfo returns dataset-level information
func (s *GridService) handleInfo(w http.ResponseWriter, r *http.Request) {
	var info model.DatasetInfo
	s.withGrid(func(g *model.Grid) {
		info = g.Info()
	})
	WriteJSON(w, http.StatusOK, info)
}

// handleColumns returns the header with column types
func (s *GridService) handleColumns(w http.ResponseWriter, r *http.Request) {
	var columns []model.ColumnInfo
	s.withGrid(func(g *model.Grid) {
		columns = g.Columns()
	})
	WriteJSON(w, http.StatusOK, columns)
}

// handleReload re-reads the source and replaces the dataset
func (s *GridService) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		WriteError(w, reloadStatus(err), err.Error())
		return
	}
	s.handleInfo(w, r)
}

// handleStats returns numeric ranges, category lists and coercion failures
func (s *GridService) handleStats(w http.ResponseWriter, r *http.Request) {
	var stats model.Statistics
	s.withGrid(func(g *model.Grid) {
		stats = g.Statistics()
	})

	WriteJSON(w, http.StatusOK, model.NewStatsView(stats))
}

// handleCategoryCounts returns the number of records per category value
func (s *GridService) handleCategoryCounts(w http.ResponseWriter, r *http.Request) {
	column, err := pathVar(r, "column")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var counts []model.CategoryCount
	s.withGrid(func(g *model.Grid) {
		counts, err = g.CategoryCounts(column)
	})
	if err != nil {
		WriteError(w, errorStatus(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, counts)
}

// handleRows returns a projection for the sort and search given as query parameters,
// the grid state is left untouched
func (s *GridService) handleRows(w http.ResponseWriter, r *http.Request) {
	state, keyword, err := parseProjection(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rows []model.Row
	s.withGrid(func(g *model.Grid) {
		if state.Column != "" && !g.Header().Has(state.Column) {
			err = fmt.Errorf("column %q: %w", state.Column, model.ErrUnknownColumn)
			return
		}
		rows = g.Project(state, keyword)
	})
	if err != nil {
		WriteError(w, errorStatus(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, rowsResponse(state, keyword, rows))
}

// parseProjection reads the sort, dir and search query parameters
func parseProjection(r *http.Request) (model.SortState, string, error) {
	query := r.URL.Query()
	direction, err := model.ParseSortDirection(query.Get("dir"))
	if err != nil {
		return model.SortState{}, "", err
	}

	state := model.SortState{Column: query.Get("sort"), Direction: direction}
	if state.Column == "" {
		state = model.SortState{}
	} else if direction == model.Unsorted && query.Get("dir") == "" {
		state.Direction = model.Ascending
	}
	if state.Direction == model.Unsorted {
		state.Column = ""
	}
	return state, query.Get("search"), nil
}

// handleView returns the rows for the current grid state
func (s *GridService) handleView(w http.ResponseWriter, r *http.Request) {
	var response RowsResponse
	s.withGrid(func(g *model.Grid) {
		response = rowsResponse(g.SortState(), g.Keyword(), g.Rows())
	})
	WriteJSON(w, http.StatusOK, response)
}

// handleHeaderClick advances the sort state of a column
func (s *GridService) handleHeaderClick(w http.ResponseWriter, r *http.Request) {
	column, err := pathVar(r, "column")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var response RowsResponse
	s.withGrid(func(g *model.Grid) {
		var rows []model.Row
		rows, err = g.OnHeaderClick(column)
		response = rowsResponse(g.SortState(), g.Keyword(), rows)
	})
	if err != nil {
		WriteError(w, errorStatus(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, response)
}

// handleSearch replaces the search keyword
func (s *GridService) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid search request: %v", err))
		return
	}

	var response RowsResponse
	s.withGrid(func(g *model.Grid) {
		rows := g.OnSearchInput(req.Keyword)
		response = rowsResponse(g.SortState(), g.Keyword(), rows)
	})
	WriteJSON(w, http.StatusOK, response)
}

// handleRecord selects a record by load index for the detail view
func (s *GridService) handleRecord(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid record index")
		return
	}

	var record model.Record
	s.withGrid(func(g *model.Grid) {
		record, err = g.OnRowIndex(index)
	})
	if err != nil {
		WriteError(w, errorStatus(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, model.NewRecordView(record))
}

// handleDetail returns the record last selected for the detail view
func (s *GridService) handleDetail(w http.ResponseWriter, r *http.Request) {
	var (
		record model.Record
		ok     bool
	)
	s.withGrid(func(g *model.Grid) {
		record, ok = g.Detail()
	})
	if !ok {
		WriteError(w, http.StatusNotFound, "No record selected")
		return
	}
	WriteJSON(w, http.StatusOK, model.NewRecordView(record))
}

func rowsResponse(state model.SortState, keyword string, rows []model.Row) RowsResponse {
	if rows == nil {
		rows = []model.Row{}
	}
	return RowsResponse{
		SortColumn:    state.Column,
		SortDirection: state.Direction.String(),
		Keyword:       keyword,
		Count:         len(rows),
		Rows:          rows,
	}
}

// reloadStatus maps a reload failure to an HTTP status code: the source could
// not be fetched, or its content did not parse
func reloadStatus(err error) int {
	if errors.Is(err, ErrFetch) {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

// pathVar returns a decoded route variable, routers match on the encoded path
// so a column name may contain an escaped slash
func pathVar(r *http.Request, name string) (string, error) {
	value, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", name, mux.Vars(r)[name], err)
	}
	return value, nil
}

// errorStatus maps engine errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownColumn), errors.Is(err, model.ErrInvalidRecordIndex), errors.Is(err, model.ErrNoDataset):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNotCategory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// StartServer starts the HTTP server with verbose output and stops it when ctx is done
func StartServer(ctx context.Context, service *GridService, addr string) error {
	r := CreateRouter(service, false) // verbose mode (not quiet)

	fmt.Printf("Starting CSV Browser API server on %s\n", addr)
	fmt.Printf("Available endpoints:\n")
	fmt.Printf("  GET  /info                      - Dataset info\n")
	fmt.Printf("  GET  /columns                   - Columns and types\n")
	fmt.Printf("  GET  /stats                     - Column statistics\n")
	fmt.Printf("  GET  /stats/{column}/counts     - Category counts\n")
	fmt.Printf("  GET  /rows?sort=&dir=&search=   - Rows for a sort/search\n")
	fmt.Printf("  GET  /view                      - Rows for the current state\n")
	fmt.Printf("  POST /sort/{column}             - Header click\n")
	fmt.Printf("  PUT  /search                    - Search input\n")
	fmt.Printf("  GET  /records/{index}           - Row click\n")
	fmt.Printf("  GET  /detail                    - Selected record\n")
	fmt.Printf("  POST /reload                    - Reload source\n")
	fmt.Println()

	return serve(ctx, &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second})
}

// serve runs server until it fails or ctx is done
func serve(ctx context.Context, server *http.Server) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
