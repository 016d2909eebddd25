// Package http exposes the todos and onboarding stores over a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/todos/internal/logging"
	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/internal/todos"
	"github.com/aretw0/todos/pkg/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds action request bodies.
const maxBodySize = 64 << 10

// streamBuffer is the number of snapshots queued per event stream client.
const streamBuffer = 10

// TodosView is the todo list surface the server drives.
type TodosView = store.View[todos.State, todos.Action]

// OnboardingView is the onboarding surface the server drives.
type OnboardingView = store.View[onboarding.State, onboarding.Action]

// Server serves both stores.
type Server struct {
	Todos      TodosView
	Onboarding OnboardingView

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the two stores.
func NewHandler(todosView TodosView, onboardingView OnboardingView, opts ...Option) http.Handler {
	s := &Server{
		Todos:      todosView,
		Onboarding: onboardingView,
		logger:     logging.NewNop(),
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/todos", s.GetTodos)
		r.Post("/todos/actions", s.DispatchTodos)
		r.Get("/todos/events", s.SubscribeTodos)
		r.Get("/onboarding", s.GetOnboarding)
		r.Post("/onboarding/actions", s.DispatchOnboarding)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TodosResponse is a todo list snapshot with its derived fields.
type TodosResponse struct {
	EditMode          todos.EditMode `json:"editMode"`
	Filter            todos.Filter   `json:"filter"`
	Todos             []todo.Todo    `json:"todos"`
	FilteredTodos     []todo.Todo    `json:"filteredTodos"`
	CanEdit           bool           `json:"canEdit"`
	CanClearCompleted bool           `json:"canClearCompleted"`
	CanDeleteAll      bool           `json:"canDeleteAll"`
}

// OnboardingResponse is an onboarding snapshot.
type OnboardingResponse struct {
	Step   onboarding.Step `json:"step"`
	Active bool            `json:"active"`
	Todos  TodosResponse   `json:"todos"`
}

func newTodosResponse(s todos.State) TodosResponse {
	return TodosResponse{
		EditMode:          s.EditMode,
		Filter:            s.Filter,
		Todos:             s.Todos.Elements(),
		FilteredTodos:     s.FilteredTodos().Elements(),
		CanEdit:           s.CanEdit(),
		CanClearCompleted: s.CanClearCompleted(),
		CanDeleteAll:      s.CanDeleteAll(),
	}
}

func newOnboardingResponse(s onboarding.State) OnboardingResponse {
	return OnboardingResponse{
		Step:   s.Step,
		Active: s.Step.Active(),
		Todos:  newTodosResponse(s.TodosState),
	}
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTodos handles GET /v1/todos.
func (s *Server) GetTodos(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newTodosResponse(s.Todos.State()))
}

// DispatchTodos handles POST /v1/todos/actions and responds with the
// state observed once the dispatch returned.
func (s *Server) DispatchTodos(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readAction(w, r)
	if !ok {
		return
	}
	action, err := DecodeTodosAction(req)
	if err != nil {
		s.rejectAction(w, req, err)
		return
	}
	s.Todos.Dispatch(action)
	s.writeJSON(w, http.StatusOK, newTodosResponse(s.Todos.State()))
}

// GetOnboarding handles GET /v1/onboarding.
func (s *Server) GetOnboarding(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newOnboardingResponse(s.Onboarding.State()))
}

// DispatchOnboarding handles POST /v1/onboarding/actions.
func (s *Server) DispatchOnboarding(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readAction(w, r)
	if !ok {
		return
	}
	action, err := DecodeOnboardingAction(req)
	if err != nil {
		s.rejectAction(w, req, err)
		return
	}
	s.Onboarding.Dispatch(action)
	s.writeJSON(w, http.StatusOK, newOnboardingResponse(s.Onboarding.State()))
}

// SubscribeTodos handles GET /v1/todos/events (SSE). The current snapshot is
// sent on connect, then one event per reducer run. Snapshots are dropped for
// clients that fall behind.
func (s *Server) SubscribeTodos(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeTodos: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan todos.State, streamBuffer)
	cancel := s.Todos.Subscribe(func(state todos.State) {
		select {
		case ch <- state:
		default:
			s.logger.Warn("SSE: Client buffer full, dropping snapshot")
		}
	})
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if err := s.writeEvent(w, s.Todos.State()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case state := <-ch:
			if err := s.writeEvent(w, state); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, state todos.State) error {
	data, err := json.Marshal(newTodosResponse(state))
	if err != nil {
		s.logger.Error("SSE snapshot encode failed", "err", err)
		return err
	}
	_, err = fmt.Fprintf(w, "event: todos\ndata: %s\n\n", data)
	return err
}

func (s *Server) readAction(w http.ResponseWriter, r *http.Request) (ActionRequest, bool) {
	var req ActionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return req, false
	}
	return req, true
}

func (s *Server) rejectAction(w http.ResponseWriter, req ActionRequest, err error) {
	status := http.StatusBadRequest
	if !errors.Is(err, ErrUnknownAction) && !errors.Is(err, ErrInvalidPayload) {
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
	s.logger.Warn("Rejected action", "type", req.Type, "err", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
