package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// BaseServer bundles the router and http.Server every service runs on.
type BaseServer struct {
	Router *mux.Router
	Server *http.Server
	Logger *zap.SugaredLogger
}

// NewBaseServer builds a server with the common middleware applied.
func NewBaseServer(addr string, logger *zap.SugaredLogger) *BaseServer {
	router := mux.NewRouter()

	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &BaseServer{
		Router: router,
		Server: server,
		Logger: logger,
	}
}

// Start blocks serving HTTP until shutdown or failure.
func (bs *BaseServer) Start() error {
	bs.Logger.Infof("Starting HTTP server on %s...", bs.Server.Addr)
	if err := bs.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (bs *BaseServer) Shutdown(ctx context.Context) error {
	bs.Logger.Info("Shutting down HTTP server...")
	return bs.Server.Shutdown(ctx)
}
