package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hangxie/csv-browser/model"
)

// GridClient is an HTTP client for a grid served by the serve command
type GridClient struct {
	baseURL string
	client  *http.Client
}

// Cell is a grid cell as served over HTTP, Color is a CSS color or empty
type Cell struct {
	Column    string            `json:"column"`
	Type      model.ColumnType  `json:"type"`
	Value     string            `json:"value"`
	Missing   bool              `json:"missing,omitempty"`
	Highlight model.Highlighted `json:"highlight"`
	Color     string            `json:"color,omitempty"`
}

// Row is a grid row as served over HTTP
type Row struct {
	Index int    `json:"index"`
	Cells []Cell `json:"cells"`
}

// Value returns the raw value of a column of the row
func (r Row) Value(column string) string {
	for _, c := range r.Cells {
		if c.Column == column {
			return c.Value
		}
	}
	return ""
}

// RowsPage is a projection of the grid
type RowsPage struct {
	SortColumn    string `json:"sortColumn,omitempty"`
	SortDirection string `json:"sortDirection"`
	Keyword       string `json:"keyword"`
	Count         int    `json:"count"`
	Rows          []Row  `json:"rows"`
}

// NewGridClient creates a new HTTP client
func NewGridClient(baseURL string) *GridClient {
	return &GridClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Info retrieves dataset-level information
func (c *GridClient) Info(ctx context.Context) (model.DatasetInfo, error) {
	var info model.DatasetInfo
	err := c.do(ctx, http.MethodGet, "/info", nil, &info)
	return info, err
}

// Columns retrieves the header with column types
func (c *GridClient) Columns(ctx context.Context) ([]model.ColumnInfo, error) {
	var columns []model.ColumnInfo
	err := c.do(ctx, http.MethodGet, "/columns", nil, &columns)
	return columns, err
}

// Stats retrieves the column statistics
func (c *GridClient) Stats(ctx context.Context) (model.StatsView, error) {
	var stats model.StatsView
	err := c.do(ctx, http.MethodGet, "/stats", nil, &stats)
	return stats, err
}

// CategoryCounts retrieves the number of records per value of a category column
func (c *GridClient) CategoryCounts(ctx context.Context, column string) ([]model.CategoryCount, error) {
	var counts []model.CategoryCount
	err := c.do(ctx, http.MethodGet, "/stats/"+url.PathEscape(column)+"/counts", nil, &counts)
	return counts, err
}

// Rows retrieves a projection for a sort state and keyword without changing the served grid
func (c *GridClient) Rows(ctx context.Context, state model.SortState, keyword string) (RowsPage, error) {
	query := url.Values{}
	if state.Column != "" && state.Direction != model.Unsorted {
		query.Set("sort", state.Column)
		query.Set("dir", state.Direction.String())
	}
	if keyword != "" {
		query.Set("search", keyword)
	}

	path := "/rows"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page RowsPage
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return page, err
}

// View retrieves the rows for the current state of the served grid
func (c *GridClient) View(ctx context.Context) (RowsPage, error) {
	var page RowsPage
	err := c.do(ctx, http.MethodGet, "/view", nil, &page)
	return page, err
}

// ClickHeader advances the sort state of a column
func (c *GridClient) ClickHeader(ctx context.Context, column string) (RowsPage, error) {
	var page RowsPage
	err := c.do(ctx, http.MethodPost, "/sort/"+url.PathEscape(column), nil, &page)
	return page, err
}

// Search replaces the search keyword
func (c *GridClient) Search(ctx context.Context, keyword string) (RowsPage, error) {
	body, err := json.Marshal(map[string]string{"keyword": keyword})
	if err != nil {
		return RowsPage{}, err
	}

	var page RowsPage
	err = c.do(ctx, http.MethodPut, "/search", body, &page)
	return page, err
}

// Record selects a record by load index for the detail view
func (c *GridClient) Record(ctx context.Context, index int) (model.RecordView, error) {
	var record model.RecordView
	err := c.do(ctx, http.MethodGet, "/records/"+strconv.Itoa(index), nil, &record)
	return record, err
}

// Detail retrieves the record selected for the detail view
func (c *GridClient) Detail(ctx context.Context) (model.RecordView, error) {
	var record model.RecordView
	err := c.do(ctx, http.MethodGet, "/detail", nil, &record)
	return record, err
}

// Reload asks the server to re-read its source
func (c *GridClient) Reload(ctx context.Context) (model.DatasetInfo, error) {
	var info model.DatasetInfo
	err := c.do(ctx, http.MethodPost, "/reload", nil, &info)
	return info, err
}

// Helper method to make requests and decode JSON
func (c *GridClient) do(ctx context.Context, method, path string, body []byte, result any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// StatusError is a non-200 response of the server
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// responseError reads the error message of a failed request
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error string `json:"error"`
	}
	message := string(bytes.TrimSpace(body))
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: message}
}
