package service

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/hangxie/csv-browser/model"
)

func webUIRouter(t *testing.T) (*mux.Router, string) {
	t.Helper()
	service, path := createTestService(t)
	router := newRouter()
	service.SetupWebUIRoutes(router)
	return router, path
}

func requireOrder(t *testing.T, body string, values ...string) {
	t.Helper()
	last := -1
	for _, v := range values {
		idx := strings.Index(body, ">"+v+"</a>")
		require.Greater(t, idx, last, "%s should be rendered after the previous value", v)
		last = idx
	}
}

func Test_SetupWebUIRoutes(t *testing.T) {
	router, _ := webUIRouter(t)

	var routeCount int
	_ = router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		routeCount++
		return nil
	})
	require.Equal(t, 4, routeCount, "Should have 4 routes registered")

	w := doRequest(router, "GET", "/favicon.ico", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, w.Body.String())
}

func Test_HandleGridPage(t *testing.T) {
	router, path := webUIRouter(t)

	w := doRequest(router, "GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code, "Grid page should return 200 OK")
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"),
		"Content-Type should be text/html")

	body := w.Body.String()
	require.Contains(t, body, "<!DOCTYPE html>", "Response should contain HTML doctype")
	require.Contains(t, body, path, "Response should name the source")
	require.Contains(t, body, "3 of 3 records")
	require.Contains(t, body, `href="/?dir=asc&amp;sort=pop"`, "Header links advance the sort state")
	require.Contains(t, body, "background-color: rgba(255, 196, 196, 1)", "Number cells are tinted")
	require.Contains(t, body, `href="/ui/counts/level"`, "Category columns link to counts")
	require.NotContains(t, body, "<mark>")
	requireOrder(t, body, "Go", "Rust", "Zig")
}

func Test_HandleGridPage_SortAndSearch(t *testing.T) {
	router, _ := webUIRouter(t)

	tests := []struct {
		name     string
		query    string
		contains []string
		order    []string
	}{
		{
			name:     "Ascending",
			query:    "?sort=pop&dir=asc",
			contains: []string{"pop ▲", `href="/?dir=desc&amp;sort=pop"`},
			order:    []string{"Rust", "Go", "Zig"},
		},
		{
			name:     "Descending",
			query:    "?sort=pop&dir=desc",
			contains: []string{"pop ▼", `href="/"`},
			order:    []string{"Zig", "Go", "Rust"},
		},
		{
			name:     "Unknown column falls back to load order",
			query:    "?sort=nope&dir=asc",
			contains: []string{`href="/?dir=asc&amp;sort=pop"`},
			order:    []string{"Go", "Rust", "Zig"},
		},
		{
			name:     "Search",
			query:    "?q=sys",
			contains: []string{"1 of 3 records", "<mark>sys</mark>tems", `value="sys"`},
			order:    []string{"Zig"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "GET", "/"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)

			body := w.Body.String()
			for _, s := range tt.contains {
				require.Contains(t, body, s)
			}
			requireOrder(t, body, tt.order...)
		})
	}
}

func Test_HandleGridPage_NoMatch(t *testing.T) {
	router, _ := webUIRouter(t)

	w := doRequest(router, "GET", "/?q=cobol", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "No records")
	require.Contains(t, w.Body.String(), "0 of 3 records")
}

func Test_HandleDetailPage(t *testing.T) {
	router, _ := webUIRouter(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{name: "Valid index", path: "/ui/records/1?sort=pop&dir=asc", expectedStatus: http.StatusOK},
		{name: "Non-numeric index", path: "/ui/records/abc", expectedStatus: http.StatusBadRequest},
		{name: "Out of range", path: "/ui/records/9", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "GET", tt.path, "")
			require.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	w := doRequest(router, "GET", "/ui/records/1?sort=pop&dir=asc", "")
	body := w.Body.String()
	require.Contains(t, body, "Record 1")
	require.Contains(t, body, "Rust")
	require.Contains(t, body, `href="/?sort=pop&amp;dir=asc"`, "Back link keeps the grid state")
}

func Test_HandleCountsPage(t *testing.T) {
	router, _ := webUIRouter(t)

	w := doRequest(router, "GET", "/ui/counts/level", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "<td>2</td>")
	require.Contains(t, body, "<td>1</td>")
	require.Contains(t, body, "width: 100px")
	require.Contains(t, body, "width: 50px")

	w = doRequest(router, "GET", "/ui/counts/pop", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, "GET", "/ui/counts/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func Test_HandleReloadPage(t *testing.T) {
	router, path := webUIRouter(t)

	require.NoError(t, os.WriteFile(path, []byte("lang\nCOBOL\n"), 0o644))
	w := doRequest(router, "POST", "/ui/reload", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	w = doRequest(router, "GET", "/", "")
	require.Contains(t, w.Body.String(), ">COBOL</a>")

	require.NoError(t, os.WriteFile(path, []byte(" \n"), 0o644))
	w = doRequest(router, "POST", "/ui/reload", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, "Unparseable content is not a gateway failure")

	w = doRequest(router, "GET", "/", "")
	require.Contains(t, w.Body.String(), ">COBOL</a>", "Failed reload keeps the dataset")

	require.NoError(t, os.Remove(path))
	w = doRequest(router, "POST", "/ui/reload", "")
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func Test_EscapedColumnPages(t *testing.T) {
	path := writeCSV(t, "lang,a/b\nGo,infra\nRust,infra\nZig,systems\n")
	service, err := NewGridService(context.Background(), Source{URI: path}, model.NewGrid(model.TypeCatalog{"a/b": model.TypeCategory}), nil)
	require.NoError(t, err)
	router := CreateWebUIRouter(service)

	w := doRequest(router, "GET", "/?q=r", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `href="/ui/counts/a%2Fb?q=r">a/b</a>`)

	w = doRequest(router, "GET", "/ui/counts/a%2Fb?q=r", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	require.Contains(t, body, "<td>2</td>")
	require.Contains(t, body, "<td>1</td>")
	require.Contains(t, body, `href="/?q=r"`)
}

func Test_GridQuery(t *testing.T) {
	require.Equal(t, "", gridQuery(model.SortState{}, ""))
	require.Equal(t, "dir=desc&sort=pop", gridQuery(model.SortState{Column: "pop", Direction: model.Descending}, ""))
	require.Equal(t, "q=a+b", gridQuery(model.SortState{Column: "pop"}, "a b"))
	require.Equal(t, "/", withQuery("/", ""))
	require.Equal(t, "/?q=x", withQuery("/", "q=x"))
}

func Test_OpenBrowser_UnderTest(t *testing.T) {
	require.NoError(t, openBrowser("http://localhost:0"))
}

func Test_StartWebUIServer_Shutdown(t *testing.T) {
	service, _ := createTestService(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- StartWebUIServer(ctx, service, addr)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("web UI server did not shut down")
	}
}
