// Package apitest runs an in-process fake of the media monitoring backend.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rtzll/mediadash/internal/api"
)

// HTTPError makes a handler reply with a status code and a "detail" body
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

// ProcessFunc handles POST /process-video
type ProcessFunc func(url string) (*api.ProcessResult, error)

// AnswerFunc handles POST /chat/{video_id}
type AnswerFunc func(videoID, question string, topK int) (string, error)

// Backend is a fake backend that records every request it receives
type Backend struct {
	mu        sync.Mutex
	videos    []api.VideoSummary
	metrics   map[string]*api.Metrics
	process   ProcessFunc
	answer    AnswerFunc
	videosErr error
	requests  []Request
	server    *httptest.Server
}

// Request is a recorded request
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// New starts a fake backend that is closed when the test ends
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		metrics: make(map[string]*api.Metrics),
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the base address of the fake
func (b *Backend) URL() string {
	return b.server.URL
}

// Client returns an API client pointed at the fake
func (b *Backend) Client(options ...api.Option) *api.Client {
	return api.NewClient(b.URL(), options...)
}

// AddVideo registers a processed video and its metrics document. A video
// that is already listed is replaced in place.
func (b *Backend) AddVideo(v api.VideoSummary, m *api.Metrics) {
	b.mu.Lock()
	defer b.mu.Unlock()
	replaced := false
	for i := range b.videos {
		if b.videos[i].VideoID == v.VideoID {
			b.videos[i] = v
			replaced = true
		}
	}
	if !replaced {
		b.videos = append(b.videos, v)
	}
	if m != nil {
		b.metrics[v.VideoID] = m
	}
}

// OnProcess replaces the /process-video handler
func (b *Backend) OnProcess(fn ProcessFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.process = fn
}

// OnAnswer replaces the /chat handler
func (b *Backend) OnAnswer(fn AnswerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answer = fn
}

// FailVideos makes /videos fail with err until called again with nil
func (b *Backend) FailVideos(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.videosErr = err
}

// Count returns how many requests matched method and path
func (b *Backend) Count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Requests returns a copy of every recorded request
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)
	r.Get("/videos", b.handleVideos)
	r.Post("/process-video", b.handleProcess)
	r.Get("/metrics/{videoID}", b.handleMetrics)
	r.Post("/chat/{videoID}", b.handleChat)
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleVideos(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	videos := append([]api.VideoSummary{}, b.videos...)
	err := b.videosErr
	b.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (b *Backend) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessRequest
	if err := decodeBody(r, &req); err != nil || req.URL == "" {
		writeError(w, &HTTPError{Status: http.StatusBadRequest, Detail: "Empty URL"})
		return
	}

	b.mu.Lock()
	fn := b.process
	n := len(b.videos)
	b.mu.Unlock()

	if fn == nil {
		fn = func(url string) (*api.ProcessResult, error) {
			id := fmt.Sprintf("video-%d", n+1)
			return &api.ProcessResult{VideoID: id, Title: "Video from " + url}, nil
		}
	}

	result, err := fn(req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	b.AddVideo(api.VideoSummary{VideoID: result.VideoID, Title: result.Title, Uploader: result.Uploader}, nil)
	writeJSON(w, http.StatusOK, result)
}

func (b *Backend) handleMetrics(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	b.mu.Lock()
	m, ok := b.metrics[videoID]
	b.mu.Unlock()

	if !ok {
		writeError(w, &HTTPError{Status: http.StatusNotFound, Detail: "Video not found"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (b *Backend) handleChat(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	var req api.ChatRequest
	if err := decodeBody(r, &req); err != nil || req.Question == "" {
		writeError(w, &HTTPError{Status: http.StatusBadRequest, Detail: "Empty question"})
		return
	}

	b.mu.Lock()
	fn := b.answer
	b.mu.Unlock()

	if fn == nil {
		fn = func(_, question string, _ int) (string, error) {
			return "answer to: " + question, nil
		}
	}

	answer, err := fn(videoID, req.Question, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ChatAnswer{Question: req.Question, Answer: answer})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if httpErr, ok := err.(*HTTPError); ok {
		writeJSON(w, httpErr.Status, map[string]string{"detail": httpErr.Detail})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
}

// SampleMetrics returns a complete metrics document for tests
func SampleMetrics(title string) *api.Metrics {
	return &api.Metrics{
		Title:           title,
		Uploader:        "Uploader",
		DurationSeconds: 212,
		ViewCount:       1234567,
		LikeCount:       8910,
		Summary:         "A short summary of " + title + ".",
		Sentiment:       api.Sentiment{Label: api.LabelPositive, Score: 0.7},
		SentimentBreakdown: api.SentimentBreakdown{
			Positive: 0.7,
			Neutral:  0.2,
			Negative: 0.1,
		},
		Transcript: api.Transcript{Text: "hello and welcome to " + title, WordCount: 5, CharCount: 21 + len(title)},
	}
}
