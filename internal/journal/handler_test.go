package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/travel-journal/backend/internal/summary"
)

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(f.svc, nil)
	r := chi.NewRouter()
	r.Route("/api/journals", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/summaries", h.Summaries)
		r.Put("/{id}/cover", h.UploadCover)
		r.Get("/{id}/cover", h.DownloadCover)
	})
	r.Post("/api/summarize", h.Summarize)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type journalBody struct {
	Journal map[string]any `json:"journal"`
}

func decodeJournal(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var b journalBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	require.NotNil(t, b.Journal)
	return b.Journal
}

func TestHandler_CreateLisbonWeek(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)

	rec := do(t, h, http.MethodPost, "/api/journals",
		`{"name":"Lisbon Week","locations":["Lisbon"],"startDate":"2025-05-01","endDate":"2025-05-08"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	j := decodeJournal(t, rec)
	assert.NotEmpty(t, j["id"])
	assert.Equal(t, []any{"Lisbon"}, j["locations"])
	assert.IsType(t, "", j["ai_summary"])
	assert.Equal(t, "2025-05-01", j["start_date"])
	assert.Equal(t, "2025-05-08", j["end_date"])
	assert.Equal(t, []any{}, j["companions"])
	assert.Equal(t, []any{}, j["highlights"])
	assert.Equal(t, []any{}, j["tags"])
	assert.Nil(t, j["rating"])
	assert.NotContains(t, j, "CoverKey")
}

func TestHandler_CreateWithFailingGenerator(t *testing.T) {
	f := newFixture()
	f.gen.err = &summary.UpstreamError{Status: 500, Body: "boom"}
	h := newTestRouter(f)

	rec := do(t, h, http.MethodPost, "/api/journals", `{"name":"Anywhere"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decodeJournal(t, rec)["ai_summary"])
}

func TestHandler_ListEmptyIsArray(t *testing.T) {
	h := newTestRouter(newFixture())

	rec := do(t, h, http.MethodGet, "/api/journals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"journals":[]}`, rec.Body.String())
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)

	rec := do(t, h, http.MethodPost, "/api/journals", `{"name":"Oslo","locations":["Oslo"],"rating":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeJournal(t, rec)
	id := created["id"].(string)

	rec = do(t, h, http.MethodPut, "/api/journals/"+id, `{"rating":null,"summary":"fjords"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	j := decodeJournal(t, rec)
	assert.Nil(t, j["rating"])
	assert.Equal(t, "fjords", j["summary"])
	assert.Equal(t, created["ai_summary"], j["ai_summary"])
	assert.Equal(t, []any{"Oslo"}, j["locations"])

	rec = do(t, h, http.MethodPut, "/api/journals/"+id, `{"name":"Oslo Winter","regenerateAI":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A trip called Oslo Winter to []", decodeJournal(t, rec)["ai_summary"])

	rec = do(t, h, http.MethodGet, "/api/journals/"+id+"/summaries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sums struct {
		Summaries []map[string]any `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sums))
	assert.Len(t, sums.Summaries, 2)

	rec = do(t, h, http.MethodPut, "/api/journals/missing", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/journals/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Oslo Winter", decodeJournal(t, rec)["name"])

	rec = do(t, h, http.MethodDelete, "/api/journals/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/journals/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_BadBody(t *testing.T) {
	h := newTestRouter(newFixture())
	rec := do(t, h, http.MethodPost, "/api/journals", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Summarize(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)

	rec := do(t, h, http.MethodPost, "/api/summarize", `{"name":"Hanoi","locations":["Hanoi","Ha Long"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"aiSummary":"A trip called Hanoi to [Hanoi, Ha Long]"}`, rec.Body.String())

	f.gen.err = summary.ErrNotConfigured
	rec = do(t, h, http.MethodPost, "/api/summarize", `{"name":"Hanoi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "API key")
}

func coverRequest(t *testing.T, path, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="cover.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_Cover(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)

	rec := do(t, h, http.MethodPost, "/api/journals", `{"name":"Reykjavik"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeJournal(t, rec)["id"].(string)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, coverRequest(t, "/api/journals/"+id+"/cover", "text/plain", []byte("nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, coverRequest(t, "/api/journals/"+id+"/cover", "image/png", []byte("\x89PNG")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CoverURL(id), decodeJournal(t, rec)["cover_image"])

	rec = do(t, h, http.MethodGet, "/api/journals/"+id+"/cover", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, coverRequest(t, "/api/journals/missing/cover", "image/png", []byte("x")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Object removed behind the service's back.
	require.NoError(t, f.covers.Remove(context.Background(), coverKey(id)))
	rec = do(t, h, http.MethodGet, "/api/journals/"+id+"/cover", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
