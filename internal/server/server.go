// Package server hosts the debug endpoints of a running simulation: the websocket trace
// stream and a listing of the registered agents.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/observability/trace"
)

// AgentLister is the part of the agent manager the server reports on.
type AgentLister interface {
	IDs() []string
}

// Server represents the debug http server
type Server struct {
	http     *http.Server
	listener net.Listener

	hub    *trace.Hub
	agents AgentLister

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log
}

// Config holds server configuration
type Config struct {
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:        "127.0.0.1:8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// NewServer creates a debug server. hub may be nil, in which case /trace is not served.
func NewServer(config Config, hub *trace.Hub, agents AgentLister, logger log.Log) *Server {
	if logger == nil {
		logger = log.Provide()
	}
	s := &Server{
		hub:    hub,
		agents: agents,
		config: config,
		logger: logger.With(log.String("component", "server")),
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return s
}

// Handler routes the debug endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/agents", s.handleAgents)
	if s.hub != nil {
		mux.Handle("/trace", s.hub)
	}
	return mux
}

type agentsResponse struct {
	Agents  []string `json:"agents"`
	Viewers int      `json:"viewers"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := agentsResponse{Agents: []string{}}
	if s.agents != nil {
		resp.Agents = s.agents.IDs()
	}
	if s.hub != nil {
		resp.Viewers = s.hub.Clients()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to write agents", log.Error(err))
	}
}

// Start starts listening and serving in the background
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if s.config.ListenAddr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Debug server failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping server")

	// viewers hold hijacked connections that Shutdown does not wait for
	if s.hub != nil {
		s.hub.Close()
	}
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}

	s.logger.Info("Server stopped")
	return nil
}

// Close closes the server and releases all resources
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}
	if atomic.LoadInt32(&s.running) == 1 {
		return s.Stop(context.Background())
	}
	return nil
}
