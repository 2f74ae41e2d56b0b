// Package api exposes the tracker over a JSON HTTP API. The tracker core
// is single-owner and lock-free, so this layer serializes access: mutating
// handlers take the write lock, read handlers the read lock.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/tracker"
)

// Server is the HTTP front end over a Tracker.
type Server struct {
	cfg     *config.Config
	tracker *tracker.Tracker
	server  *http.Server

	// mu serializes access to the tracker and every group it owns.
	mu sync.RWMutex
}

// New builds a server around the given tracker.
func New(cfg *config.Config, tr *tracker.Tracker) *Server {
	s := &Server{
		cfg:     cfg,
		tracker: tr,
	}
	s.server = &http.Server{
		Addr: cfg.Host + ":" + strconv.Itoa(cfg.Port),
		// h2c allows HTTP/2 without TLS for clients that want it.
		Handler: h2c.NewHandler(s.routes(), &http2.Server{}),
	}
	return s
}

// Handler returns the fully assembled handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	slog.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// MustStart runs the server and panics on any failure other than a
// graceful shutdown.
func (s *Server) MustStart() {
	if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("failed to start server: " + err.Error())
	}
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	defer slog.Info("server stopped")
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware, metricsMiddleware, corsMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}", s.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}", s.handleDeleteGroup).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{groupID}/users", s.handleAddUser).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/users/{userID}", s.handleRemoveUser).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{groupID}/expenses", s.handleAddExpense).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/settlements", s.handleSettleDebt).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/balances", s.handleGetBalances).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}/debts", s.handleGetSimplifiedDebts).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}/users/{userID}/debts", s.handleGetUserDebtSummary).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}/summary", s.handleGetSummary).Methods(http.MethodGet)

	return r
}
