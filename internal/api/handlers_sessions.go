package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/slidestream/internal/deck"
	"github.com/dgallion1/slidestream/internal/export"
	"github.com/dgallion1/slidestream/internal/replay"
	"github.com/dgallion1/slidestream/internal/session"
	"github.com/dgallion1/slidestream/internal/sse"
)

type chunkRequest struct {
	Chunk string `json:"chunk"`
	Mode  string `json:"mode"`
}

// slidesResponse reports the slides a call produced alongside the session
// total.
type slidesResponse struct {
	SessionID string       `json:"session_id"`
	Slides    []deck.Slide `json:"slides"`
	Total     int          `json:"total"`
	Skipped   int          `json:"skipped_lines,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Create()
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "sessionID")); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxChunkBytes)
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "chunk exceeds max size", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := replay.ParseMode(req.Mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	out := sess.Submit(req.Chunk, mode)
	s.writeSlides(w, sess, out, 0)
}

// handleStream decodes a server-sent-event body from a model and feeds each
// text delta to the session as it arrives. With ?finalize=true the session is
// finalized once the stream ends cleanly.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxChunkBytes)
	var out []deck.Slide
	skipped, err := sse.Drain(r.Context(), r.Body, func(text string) {
		out = append(out, sess.Submit(text, replay.Delta)...)
	})
	if err != nil {
		s.log.Warn("stream ended with error", "session_id", sess.ID, "error", err, "slides", len(out))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "stream exceeds max size", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if r.URL.Query().Get("finalize") == "true" {
		out = append(out, sess.Finalize()...)
	}
	s.writeSlides(w, sess, out, skipped)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeSlides(w, sess, sess.Finalize(), 0)
}

func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeSlides(w, sess, sess.Slides(), 0)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(export.Markdown(sess.Slides())))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	page, err := export.HTMLDocument(sess.Slides(), "Session "+sess.ID)
	if err != nil {
		s.log.Error("render preview", "session_id", sess.ID, "error", err)
		jsonError(w, "failed to render preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleClearLive(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.ClearLive()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// lookup resolves the session named in the path, writing the error response
// itself when there is none.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.sessionError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrLimit):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error("session error", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) writeSlides(w http.ResponseWriter, sess *session.Session, slides []deck.Slide, skipped int) {
	if slides == nil {
		slides = []deck.Slide{}
	}
	writeJSON(w, http.StatusOK, slidesResponse{
		SessionID: sess.ID,
		Slides:    slides,
		Total:     len(sess.Slides()),
		Skipped:   skipped,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
