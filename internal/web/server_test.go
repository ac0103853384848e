package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tabulario/datalens/internal/chart"
	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/dispatch"
	"github.com/tabulario/datalens/internal/domain/errs"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dataDir := t.TempDir()
	outputDir := t.TempDir()
	csv := "product,price\nwidget,9.99\ngadget,24.50\n"
	if err := os.WriteFile(filepath.Join(dataDir, "catalog.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("failed to seed data dir: %v", err)
	}
	store := dataset.NewStore(dataDir)
	dispatcher := dispatch.New(store, chart.NewPNGRenderer(outputDir), outputDir)
	return NewServer(":0", dispatcher, store, outputDir, "http://localhost:3000", "test-key")
}

func TestHandleTools(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.handleTools(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tools []dispatch.Operation `json:"tools"`
	}
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 7, len(body.Tools))
}

func TestHandleFiles(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.handleFiles(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Files []fileInfo `json:"files"`
	}
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, len(body.Files))
	assert.Equal(t, "catalog.csv", body.Files[0].Name)
	assert.Assert(t, body.Files[0].Size > 0)
}

func TestHandleInvoke(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/invoke",
		strings.NewReader(`{"op": "read_table", "args": {"path": "catalog.csv"}}`))
	rec := httptest.NewRecorder()

	s.handleInvoke(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		OK      bool            `json:"ok"`
		Payload json.RawMessage `json:"payload"`
	}
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Assert(t, res.OK)

	// Successful invokes with a path remember the dataset.
	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == sessionName {
			found = true
		}
	}
	assert.Assert(t, found)
}

func TestHandleInvokeFailure(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/invoke",
		strings.NewReader(`{"op": "read_table", "args": {"path": "missing.csv"}}`))
	rec := httptest.NewRecorder()

	s.handleInvoke(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		OK    bool        `json:"ok"`
		Error *errs.Error `json:"error"`
	}
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Assert(t, !res.OK)
	assert.Equal(t, errs.NotFound, res.Error.Kind)
}

func TestHandleInvokeBadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/invoke", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	s.handleInvoke(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Assert(t, strings.Contains(body, "catalog.csv"))
	assert.Assert(t, strings.Contains(body, "read_table"))
}
