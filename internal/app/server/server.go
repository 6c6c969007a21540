package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SbuKhoza/handy-rentals-app/internal/app/registry"
	"github.com/SbuKhoza/handy-rentals-app/internal/app/server/handlers"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/services"
	"github.com/SbuKhoza/handy-rentals-app/pkg/middleware"
)

type Server struct {
	mux       *http.ServeMux
	addr      string
	log       *slog.Logger
	wsHandler *handlers.WSHandler
	tokenSvc  *services.TokenService
	httpSrv   *http.Server
}

func NewServer(
	log *slog.Logger,
	name, addr string,
	tokenSvc *services.TokenService,
	directory *services.ConversationDirectory,
	channel *services.MessageChannel,
	tracker *services.ReadStateTracker,
	hub *registry.Registry,
) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		addr:      addr,
		log:       log,
		wsHandler: handlers.NewWSHandler(hub, directory, channel, tracker),
		tokenSvc:  tokenSvc,
	}
	s.routes(name)
	return s
}

func (s *Server) routes(name string) {
	auth := middleware.AuthMiddleware(s.tokenSvc)
	logmw := middleware.RequestLogger(s.log)
	trace := middleware.TracerMiddleware(name)

	s.mux.Handle("/ws", trace(logmw(auth(http.HandlerFunc(s.wsHandler.Handler)))))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:        s.addr,
		Handler:     s.mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket sessions are long-lived.
	}
	s.log.Info("server starting", "addr", s.addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
