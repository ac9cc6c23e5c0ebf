package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ofertas/internal/config"
	"github.com/JonMunkholm/ofertas/internal/core"
	"github.com/JonMunkholm/ofertas/internal/metrics"
)

const offersCSV = "CN,LABORATORIO,PVL\n123456,LabX,4.50\n654321,LabY,3\n000042,LabZ,\n"

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg, err := config.LoadFrom(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Rate.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	ref := core.NewReferenceIndex([]core.ReferenceRecord{
		{Code: "123456", ActiveIngredient: "Paracetamol", Presentation: "500mg", ListingDate: "2020-01-01", SupplyIssue: "No"},
		{Code: "654321", ActiveIngredient: "Ibuprofeno", Presentation: "600mg"},
	})
	m := metrics.New()
	svc, err := core.NewService(ref, cfg, m)
	require.NoError(t, err)

	s := NewServer(cfg, svc, m)
	t.Cleanup(func() { _ = s.Shutdown(t.Context()) })
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, files map[string]string, order ...string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func createSession(t *testing.T, s *Server) SessionResponse {
	t.Helper()

	rec := do(s, uploadRequest(t, map[string]string{"ofertas.csv": offersCSV}, "ofertas.csv"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func processForm(id, column string) *http.Request {
	form := url.Values{"price_column": {column}}
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/process", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServer_FullFlow(t *testing.T) {
	s := newTestServer(t, nil)

	sess := createSession(t, s)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, []string{"ofertas.csv"}, sess.Files)
	assert.Equal(t, []string{"CN", "LABORATORIO", "PVL"}, sess.Columns)

	rec := do(s, processForm(sess.ID, "PVL"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var proc ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proc))
	assert.Equal(t, "processed", proc.Status)
	assert.Equal(t, 2, proc.Offers)
	assert.Equal(t, 2, proc.Matched)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/offers?active_ingredient=PARA", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var offers struct {
		Count  int              `json:"count"`
		Offers []map[string]any `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offers))
	require.Equal(t, 1, offers.Count)
	assert.Equal(t, map[string]any{
		"code":              "123456",
		"price":             "4.50",
		"laboratory":        "LabX",
		"active_ingredient": "Paracetamol",
		"presentation":      "500mg",
		"listing_date":      "2020-01-01",
		"supply_issue_flag": "No",
	}, offers.Offers[0])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/export?format=csv&presentation=600", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ofertas.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "654321,3,LabY,Ibuprofeno"), lines[1])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summary SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "PVL", summary.PriceColumn)
	assert.Equal(t, 2, summary.Offers)

	rec = do(s, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ProcessWithoutColumnIsSkipped(t *testing.T) {
	s := newTestServer(t, nil)
	sess := createSession(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/process", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"skipped","offers":0,"matched":0,"duration_ms":0}`, rec.Body.String())
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 64 })

	t.Run("unknown session", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/sessions/missing/offers", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "SES001", body.Code)
	})

	t.Run("no files", func(t *testing.T) {
		rec := do(s, uploadRequest(t, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE003")
	})

	t.Run("file too large", func(t *testing.T) {
		rec := do(s, uploadRequest(t, map[string]string{"big.csv": strings.Repeat("x", 65)}, "big.csv"))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE001")
	})

	t.Run("bad export format", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/sessions/x/export?format=pdf", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "REQ001")
	})

	t.Run("htmx error fragment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing/offers", nil)
		req.Header.Set("HX-Request", "true")
		rec := do(s, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Not Found", rec.Header().Get("X-Error-Status"))
		assert.Contains(t, rec.Body.String(), "alert-error")
	})
}

func TestServer_HTMXOffersFragment(t *testing.T) {
	s := newTestServer(t, nil)
	sess := createSession(t, s)
	require.Equal(t, http.StatusOK, do(s, processForm(sess.ID, "PVL")).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/offers?active_ingredient=ibu", nil)
	req.Header.Set("HX-Request", "true")
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>654321</td>")
	assert.NotContains(t, rec.Body.String(), "<td>123456</td>")
}

func TestServer_IndexHealthReferenceMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2 productos")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	rec = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/reference", nil))
	assert.JSONEq(t, `{"records":2,"duplicates":0}`, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ofertas_reference_records 2")
}

func TestServer_APIKey(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"k"}
	})

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/reference", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/reference", nil)
	req.Header.Set("X-API-Key", "k")
	assert.Equal(t, http.StatusOK, do(s, req).Code)

	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"), "limits are per client")
}

func TestServer_RateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 1
	})

	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE001")
}
