package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/slidestream/internal/config"
	"github.com/dgallion1/slidestream/internal/session"
	"github.com/dgallion1/slidestream/internal/stats"
)

type testSlides struct {
	SessionID string `json:"session_id"`
	Slides    []struct {
		ID      string           `json:"id"`
		Content []map[string]any `json:"content"`
	} `json:"slides"`
	Total   int `json:"total"`
	Skipped int `json:"skipped_lines"`
}

func newTestServer(t *testing.T, cfg config.Config, limit int) *httptest.Server {
	t.Helper()
	if cfg.MaxChunkBytes == 0 {
		cfg.MaxChunkBytes = 1 << 20
	}
	timing := stats.NewSet(time.Hour)
	log := slog.New(slog.DiscardHandler)
	store := session.NewStore(time.Hour, limit, session.WithLogger(log), session.WithStats(timing))
	ts := httptest.NewServer(NewServer(store, timing, log, cfg))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/api/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	snap := decode[session.Snapshot](t, resp)
	if snap.ID == "" {
		t.Fatal("expected a session id")
	}
	return snap.ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, config.Config{}, 0)
	resp := do(t, http.MethodGet, ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t, config.Config{}, 0)
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/sessions/" + id

	resp := do(t, http.MethodPost, base+"/chunks", `{"chunk":"<SECTION><H1>One</H1></SECTION><SECTION><H1>Tw"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	got := decode[testSlides](t, resp)
	if len(got.Slides) != 1 || got.Total != 1 {
		t.Fatalf("expected 1 new slide of 1, got %d of %d", len(got.Slides), got.Total)
	}
	if got.Slides[0].Content[0]["type"] != "heading" {
		t.Errorf("expected a heading node, got %v", got.Slides[0].Content[0])
	}

	resp = do(t, http.MethodPost, base+"/chunks", `{"chunk":"o</H1>","mode":"delta"}`)
	got = decode[testSlides](t, resp)
	if len(got.Slides) != 0 {
		t.Errorf("expected no new slides for an open section, got %d", len(got.Slides))
	}

	resp = do(t, http.MethodPost, base+"/finalize", "")
	got = decode[testSlides](t, resp)
	if len(got.Slides) != 1 || got.Total != 2 {
		t.Fatalf("expected finalize to emit 1 slide for 2 total, got %d of %d", len(got.Slides), got.Total)
	}

	resp = do(t, http.MethodGet, base+"/slides", "")
	got = decode[testSlides](t, resp)
	if len(got.Slides) != 2 {
		t.Errorf("expected 2 slides, got %d", len(got.Slides))
	}

	snap := decode[session.Snapshot](t, do(t, http.MethodGet, base, ""))
	if snap.Status != session.StatusFinalized || snap.Chunks != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	resp = do(t, http.MethodGet, base+"/markdown", "")
	md, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(md), "# One") || !strings.Contains(string(md), "# Two") {
		t.Errorf("unexpected markdown: %q", md)
	}

	resp = do(t, http.MethodGet, base+"/preview", "")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), `<section id="one"`) {
		t.Errorf("expected a section anchor in the preview, got %q", page)
	}

	resp = do(t, http.MethodPost, base+"/reset", "")
	snap = decode[session.Snapshot](t, resp)
	if snap.Slides != 0 || snap.Status != session.StatusOpen {
		t.Errorf("expected an empty open session after reset, got %+v", snap)
	}

	resp = do(t, http.MethodDelete, base, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, base+"/slides", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestChunk_BadRequests(t *testing.T) {
	ts := newTestServer(t, config.Config{MaxChunkBytes: 64}, 0)
	base := ts.URL + "/api/sessions/" + createSession(t, ts.URL)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{"chunk":`, http.StatusBadRequest},
		{"unknown mode", `{"chunk":"x","mode":"sideways"}`, http.StatusBadRequest},
		{"too large", `{"chunk":"` + strings.Repeat("x", 128) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, base+"/chunks", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			body := decode[map[string]string](t, resp)
			if body["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestStream(t *testing.T) {
	ts := newTestServer(t, config.Config{}, 0)
	base := ts.URL + "/api/sessions/" + createSession(t, ts.URL)

	stream := strings.Join([]string{
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"<SECTION><H1>Streamed"}}`,
		`data: not json`,
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"</H1></SECTION><SECTION><P>tail"}}`,
		`data: {"type":"message_stop"}`,
		"",
	}, "\n")

	resp := do(t, http.MethodPost, base+"/stream?finalize=true", stream)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	got := decode[testSlides](t, resp)
	if len(got.Slides) != 2 || got.Total != 2 {
		t.Errorf("expected 2 slides, got %d of %d", len(got.Slides), got.Total)
	}
	if got.Skipped != 1 {
		t.Errorf("expected 1 skipped line, got %d", got.Skipped)
	}
}

func TestStream_ErrorEvent(t *testing.T) {
	ts := newTestServer(t, config.Config{}, 0)
	base := ts.URL + "/api/sessions/" + createSession(t, ts.URL)

	stream := `data: {"type":"error","error":{"type":"overloaded_error","message":"busy"}}` + "\n"
	resp := do(t, http.MethodPost, base+"/stream", stream)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestSessionLimit(t *testing.T) {
	ts := newTestServer(t, config.Config{}, 1)
	createSession(t, ts.URL)
	resp := do(t, http.MethodPost, ts.URL+"/api/sessions", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, config.Config{APIKey: "secret"}, 0)

	if resp := do(t, http.MethodGet, ts.URL+"/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/sessions", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/sessions", "", "Authorization", "Bearer wrong"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with a bad token, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/sessions", "", "Authorization", "Bearer secret"); resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201 with the right token, got %d", resp.StatusCode)
	}
}

func TestParseStats(t *testing.T) {
	ts := newTestServer(t, config.Config{StatsWindow: time.Hour}, 0)
	base := ts.URL + "/api/sessions/" + createSession(t, ts.URL)
	do(t, http.MethodPost, base+"/chunks", `{"chunk":"<SECTION><P>x</P></SECTION>"}`)

	resp := do(t, http.MethodGet, ts.URL+"/api/stats/parse", "")
	body := decode[struct {
		Sessions int                       `json:"sessions"`
		Stats    map[string]stats.Snapshot `json:"stats"`
	}](t, resp)
	if body.Sessions != 1 {
		t.Errorf("expected 1 session, got %d", body.Sessions)
	}
	if body.Stats["submit"].Count != 1 {
		t.Errorf("expected 1 submit sample, got %d", body.Stats["submit"].Count)
	}
}

func TestRequestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	timing := stats.NewSet(time.Hour)
	store := session.NewStore(time.Hour, 0, session.WithLogger(log), session.WithStats(timing))
	srv := NewServer(store, timing, log, config.Config{MaxChunkBytes: 1 << 20})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	var snap session.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	buf.Reset()
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+snap.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err == nil && e["msg"] == "request" {
			entry = e
		}
	}
	if entry == nil {
		t.Fatalf("expected a request log line, got %q", buf.String())
	}
	if entry["session_id"] != snap.ID {
		t.Errorf("expected session_id %q, got %v", snap.ID, entry["session_id"])
	}
	if n, _ := entry["bytes"].(float64); int(n) != rec.Body.Len() {
		t.Errorf("expected bytes %d, got %v", rec.Body.Len(), entry["bytes"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("expected a request id")
	}
}
