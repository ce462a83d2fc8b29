package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/model"
)

func newTestServer(t *testing.T, withStore bool) (*server, http.Handler) {
	t.Helper()
	useTestConfig(t)
	s := &server{
		base:      heal.Options{PreviewRows: 1000},
		maxUpload: 1 << 20,
		tempDir:   t.TempDir(),
	}
	if withStore {
		s.store = testStore(t)
	}
	return s, newRouter(s, []string{"https://app.example.com"})
}

// multipartBody builds a form with a "file" part and the given fields.
func multipartBody(t *testing.T, filename, content string, fields map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func postForm(t *testing.T, h http.Handler, path, filename, content string, fields map[string][]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	_, h := newTestServer(t, false)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_CORS(t *testing.T) {
	_, h := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/v1/heal", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Heal(t *testing.T) {
	s, h := newTestServer(t, true)

	rr := postForm(t, h, "/v1/heal", "expenses.csv", expenseCSV, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Report struct {
			Input   string       `json:"input"`
			RunID   string       `json:"run_id"`
			Mode    model.Mode   `json:"mode"`
			Summary heal.Summary `json:"summary"`
		} `json:"report"`
		Clean      [][]string `json:"clean"`
		Quarantine [][]string `json:"quarantine"`
		Changelog  [][]string `json:"changelog"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "expenses.csv", resp.Report.Input)
	assert.Equal(t, model.ModeSchema, resp.Report.Mode)
	assert.Equal(t, 1, resp.Report.Summary.Clean)
	require.Len(t, resp.Clean, 2)
	assert.Equal(t, "Alice Smith", resp.Clean[1][0])
	assert.Equal(t, "Was Modified", resp.Clean[0][len(resp.Clean[0])-2])
	require.Len(t, resp.Quarantine, 2)
	assert.Equal(t, "Quarantine Reason", resp.Quarantine[0][len(resp.Quarantine[0])-1])
	assert.Equal(t, []string{"Row", "Column", "Original Value", "New Value", "Action", "Reason"}, resp.Changelog[0])

	require.NotEmpty(t, resp.Report.RunID)
	run, err := s.store.GetRun(t.Context(), resp.Report.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "expenses.csv", run.Input)
}

func TestRouter_HealWithoutStore(t *testing.T) {
	_, h := newTestServer(t, false)

	rr := postForm(t, h, "/v1/heal", "expenses.csv", expenseCSV, map[string][]string{"header_row": {"1"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), `"run_id"`)
}

func TestRouter_HealBadRequests(t *testing.T) {
	_, h := newTestServer(t, false)

	rr := postForm(t, h, "/v1/heal", "", "", map[string][]string{"sheet": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "no file provided")

	rr = postForm(t, h, "/v1/heal", "a.csv", expenseCSV, map[string][]string{"header_row": {"two"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "header_row")

	rr = postForm(t, h, "/v1/heal", "a.csv", expenseCSV, map[string][]string{"consolidate": {"maybe"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postForm(t, h, "/v1/heal", "a.csv", expenseCSV, map[string][]string{"role": {"no-equals"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid role")
}

func TestRouter_HealLoadErrors(t *testing.T) {
	_, h := newTestServer(t, false)

	rr := postForm(t, h, "/v1/heal", "notes.pdf", "%PDF-1.4", nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	assert.Contains(t, rr.Body.String(), `"kind":"Unsupported"`)

	rr = postForm(t, h, "/v1/heal", "empty.csv", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"kind":"EmptyInput"`)
}

func TestRouter_Inspect(t *testing.T) {
	_, h := newTestServer(t, false)

	rr := postForm(t, h, "/v1/inspect", "expenses.csv", expenseCSV, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var in heal.Inspection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &in))
	assert.Equal(t, model.ModeSchema, in.HealingModeCandidate)
	assert.Equal(t, 1, in.DetectedHeaderRowNumber)
	assert.Equal(t, ",", in.Delimiter)
}

func TestRouter_Runs(t *testing.T) {
	s, h := newTestServer(t, true)
	ctx := t.Context()

	first, err := s.store.CreateRun(ctx, "a.csv")
	require.NoError(t, err)
	_, err = s.store.CreateRun(ctx, "b.csv")
	require.NoError(t, err)
	require.NoError(t, s.store.FailRun(ctx, first.ID, "boom"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs?status=failed", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, first.ID, runs[0].ID)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/"+first.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var run model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "a.csv", run.Input)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "boom", run.Error)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_RunsWithoutStore(t *testing.T) {
	_, h := newTestServer(t, false)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

