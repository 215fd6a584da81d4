package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/jarvis/internal/conversation"
	"github.com/MikeSquared-Agency/jarvis/internal/session"
)

// Session is the part of the session controller the API drives.
type Session interface {
	Submit(ctx context.Context, raw string) session.Result
	Messages() []conversation.Message
	Status() session.Status
	Executing() bool
}

// Server is a loopback-only JSON surface over a Session, for a browser or
// other local UI.
type Server struct {
	router  *chi.Mux
	session Session
	srv     *http.Server
}

func NewServer(port int, sess Session) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		session: sess,
		srv: &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/conversation", s.conversation)
		r.Delete("/conversation", s.reset)
		r.Post("/tasks", s.submitTask)
	})

	return s
}

func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type taskRequest struct {
	Input string `json:"input"`
}

type conversationView struct {
	Messages    []conversation.Message `json:"messages"`
	Status      session.Status         `json:"status"`
	Executing   bool                   `json:"executing"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

type taskResponse struct {
	conversationView
	RequestID string                `json:"request_id"`
	Outcome   string                `json:"outcome"`
	Reply     *conversation.Message `json:"reply,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	res := s.session.Submit(r.Context(), session.ResetCommand)
	if res.Outcome == session.Busy {
		writeError(w, http.StatusConflict, "a task is already executing")
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) submitTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	// An issued task runs to completion even if the caller goes away.
	res := s.session.Submit(context.WithoutCancel(r.Context()), req.Input)
	switch res.Outcome {
	case session.Ignored:
		writeError(w, http.StatusBadRequest, "input is empty")
		return
	case session.Busy:
		writeError(w, http.StatusConflict, "a task is already executing")
		return
	}

	writeJSON(w, http.StatusOK, taskResponse{
		conversationView: s.view(),
		RequestID:        res.RequestID,
		Outcome:          res.Outcome.String(),
		Reply:            res.Reply,
	})
}

func (s *Server) view() conversationView {
	v := conversationView{
		Messages:  s.session.Messages(),
		Status:    s.session.Status(),
		Executing: s.session.Executing(),
	}
	if len(v.Messages) == 0 {
		v.Suggestions = session.Suggestions
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
