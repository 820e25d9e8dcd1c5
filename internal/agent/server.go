package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/agent/cachestore"
	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Control surface paths.
const (
	SyncPath           = "/__agent/sync/{tag}"
	StatusPath         = "/__agent/status"
	OfflineHistoryPath = "/__agent/offline-history"
	MetricsPath        = "/metrics"
)

const maxMessageSize = 1 << 20

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestID returns the id assigned to the request by the server.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type Server struct {
	address         string
	reg             *Registration
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(address string, reg *Registration, l logging.Logger, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         address,
		reg:             reg,
		logger:          l.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler builds the agent router. Control endpoints live under /__agent/;
// every other path is intercepted by the active version.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.SkipClean(true)
	r.UseEncodedPath()
	r.Use(s.requestIDMiddleware)

	r.HandleFunc(common.AgentMessagesPath, s.handleMessage).Methods(http.MethodPost)
	r.HandleFunc(SyncPath, s.handleSync).Methods(http.MethodPost)
	r.HandleFunc(StatusPath, s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc(OfflineHistoryPath, s.handleOfflineHistory).Methods(http.MethodGet)
	r.Handle(MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(s.reg)

	return r
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var msg common.AgentMessage
	dec := json.NewDecoder(io.LimitReader(r.Body, maxMessageSize))
	if err := dec.Decode(&msg); err != nil {
		http.Error(w, "invalid message: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := s.reg.HandleMessage(ctx, msg)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrUnknownMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNoAgent):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.logger.Error(ctx, "message failed", "type", msg.Type, "request_id", RequestID(ctx), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type syncResult struct {
	Tag        string `json:"tag"`
	Registered bool   `json:"registered"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag := mux.Vars(r)["tag"]

	registered, err := s.reg.Sync(ctx, tag)
	if errors.Is(err, ErrNoAgent) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		s.logger.Error(ctx, "sync failed", "tag", tag, "request_id", RequestID(ctx), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, syncResult{Tag: tag, Registered: registered})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.Status())
}

func (s *Server) handleOfflineHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a := s.reg.Active()
	if a == nil {
		http.Error(w, ErrNoAgent.Error(), http.StatusServiceUnavailable)
		return
	}

	resp, err := a.OfflineHistory(ctx)
	if errors.Is(err, cachestore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error(ctx, "offline history failed", "request_id", RequestID(ctx), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeCached(w, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
