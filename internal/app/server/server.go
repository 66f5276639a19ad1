package server

import (
	"chathub/internal/app/server/handlers"
	"chathub/internal/core/services"
	"chathub/pkg/middleware"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	mux       *http.ServeMux
	addr      string
	name      string
	log       *slog.Logger
	wsHandler *handlers.WSHandler
	auth      *services.Authenticator
}

func NewServer(
	log *slog.Logger,
	name string,
	addr string,
	auth *services.Authenticator,
	wsHandler *handlers.WSHandler,
) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		addr:      addr,
		name:      name,
		log:       log,
		wsHandler: wsHandler,
		auth:      auth,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	authn := middleware.AuthMiddleware(s.auth)
	logged := middleware.RequestLogger(s.log)
	traced := middleware.TracerMiddleware(s.name)

	// The hub surface: one authenticated websocket endpoint. Everything
	// else (contact CRUD, history paging) lives with the external store.
	s.mux.Handle("/ws", traced(logged(authn(http.HandlerFunc(s.wsHandler.Handler)))))

	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Start serves until ctx is cancelled, then drains with a bounded
// shutdown window. Long-lived websocket sessions are closed by their own
// read loops when the listener goes away.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:        s.addr,
		Handler:     s.mux,
		ReadTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
