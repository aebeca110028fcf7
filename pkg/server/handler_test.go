package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/recursive-rag/pkg/chat"
	"github.com/mikeboe/recursive-rag/pkg/ingest"
	"github.com/mikeboe/recursive-rag/pkg/metrics"
	"github.com/mikeboe/recursive-rag/pkg/reasoning"
)

type stubAsker struct {
	got  chat.Request
	resp *chat.Response
	err  error
}

func (s *stubAsker) Ask(ctx context.Context, req chat.Request) (*chat.Response, error) {
	s.got = req
	return s.resp, s.err
}

type stubIngester struct {
	files []ingest.File
	err   error
}

func (s *stubIngester) Ingest(ctx context.Context, files []ingest.File) (*ingest.Result, error) {
	s.files = files
	if s.err != nil {
		return nil, s.err
	}
	return &ingest.Result{Message: "Successfully processed 1 files", TotalChunks: 4}, nil
}

type stubCollection struct {
	count  int
	resets int
	err    error
}

func (s *stubCollection) Count(ctx context.Context) (int, error) { return s.count, s.err }
func (s *stubCollection) Reset(ctx context.Context) error {
	s.resets++
	s.count = 0
	return s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

type fixture struct {
	router *gin.Engine
	asker  *stubAsker
	ingest *stubIngester
	docs   *stubCollection
}

func newFixture(pingErr error) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		asker: &stubAsker{resp: &chat.Response{
			Response:       "answer",
			Sources:        []string{"a.pdf"},
			ReasoningSteps: []reasoning.Step{},
		}},
		ingest: &stubIngester{},
		docs:   &stubCollection{count: 12},
	}
	h := &Handler{
		Chat:    f.asker,
		Ingest:  f.ingest,
		Docs:    f.docs,
		Health:  stubPinger{err: pingErr},
		Metrics: metrics.New(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	f.router = gin.New()
	h.RegisterRoutes(f.router)
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRoot(t *testing.T) {
	f := newFixture(nil)
	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Recursive RAG Chatbot API is running", body["message"])
}

func TestChat(t *testing.T) {
	f := newFixture(nil)
	payload := `{"message":"Compare X and Y","max_recursion_depth":2,"conversation_history":[{"role":"user","content":"hi"}]}`
	rec, body := f.do(t, httptest.NewRequest(http.MethodPost, "/chat/", bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "answer", body["response"])
	assert.Equal(t, []any{"a.pdf"}, body["sources"])
	assert.Equal(t, []any{}, body["reasoning_steps"])
	assert.Equal(t, float64(0), body["recursion_depth"])

	assert.Equal(t, "Compare X and Y", f.asker.got.Message)
	assert.Nil(t, f.asker.got.UseRecursive)
	require.NotNil(t, f.asker.got.MaxRecursionDepth)
	assert.Equal(t, 2, *f.asker.got.MaxRecursionDepth)
}

func TestChatRejectsMissingMessage(t *testing.T) {
	for _, payload := range []string{`{"use_recursive":false}`, `{"message":""}`} {
		t.Run(payload, func(t *testing.T) {
			f := newFixture(nil)
			rec, body := f.do(t, httptest.NewRequest(http.MethodPost, "/chat/", bytes.NewBufferString(payload)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, body["error"])
			assert.Zero(t, f.asker.got)
		})
	}
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"generator failure", &reasoning.StepError{Step: reasoning.StepAnalysis, Err: errors.New("ollama down")}, http.StatusInternalServerError},
		{"invalid depth", reasoning.ErrInvalidDepth, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			f.asker.err = tt.err
			rec, body := f.do(t, httptest.NewRequest(http.MethodPost, "/chat/", bytes.NewBufferString(`{"message":"q"}`)))
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func multipartUpload(t *testing.T, names ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, n := range names {
		part, err := w.CreateFormFile("files", n)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + n))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-pdfs/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadPDFs(t *testing.T) {
	f := newFixture(nil)
	rec, body := f.do(t, multipartUpload(t, "a.pdf", "notes.txt"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully processed 1 files", body["message"])
	assert.Equal(t, float64(4), body["total_chunks"])

	require.Len(t, f.ingest.files, 2)
	assert.Equal(t, "a.pdf", f.ingest.files[0].Name)
	assert.Equal(t, "content of a.pdf", string(f.ingest.files[0].Data))
}

func TestUploadPDFsFailure(t *testing.T) {
	f := newFixture(nil)
	f.ingest.err = errors.New("failed to read pdf")
	rec, body := f.do(t, multipartUpload(t, "broken.pdf"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "failed to read pdf")
}

func TestUploadPDFsWithoutFiles(t *testing.T) {
	f := newFixture(nil)
	rec, _ := f.do(t, multipartUpload(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus string
		wantOllama string
	}{
		{"ollama up", nil, "healthy", "running"},
		{"ollama down", errors.New("connection refused"), "unhealthy", "not running"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.pingErr)
			rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/health/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, tt.wantOllama, body["ollama"])
			assert.Equal(t, float64(12), body["documents_count"])
		})
	}
}

func TestHealthWithoutOllama(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&Service{Metrics: metrics.New(), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.Nil(t, h.Health)
	h.Docs = &stubCollection{count: 3}

	router := gin.New()
	h.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","ollama":"not used","documents_count":3}`, rec.Body.String())
}

func TestClearDatabase(t *testing.T) {
	f := newFixture(nil)
	rec, body := f.do(t, httptest.NewRequest(http.MethodDelete, "/clear-database/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Database cleared successfully", body["message"])
	assert.Equal(t, 1, f.docs.resets)

	f.docs.err = errors.New("permission denied")
	rec, _ = f.do(t, httptest.NewRequest(http.MethodDelete, "/clear-database/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(nil)
	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
