package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 30 * time.Second
)

// ShutdownHook releases a resource after the HTTP server stopped accepting requests.
type ShutdownHook func(ctx context.Context) error

// Server wraps http.Server to drain connections on SIGINT/SIGTERM and then
// run the registered shutdown hooks in reverse registration order.
type Server struct {
	*http.Server

	signalChan   chan os.Signal
	shutdownChan chan struct{}
	shutdownOnce sync.Once

	hooksMu sync.Mutex
	hooks   []namedHook
}

type namedHook struct {
	name string
	fn   ShutdownHook
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// OnShutdown registers a hook run after the HTTP server drained.
func (srv *Server) OnShutdown(name string, fn ShutdownHook) {
	srv.hooksMu.Lock()
	srv.hooks = append(srv.hooks, namedHook{name: name, fn: fn})
	srv.hooksMu.Unlock()
}

// ListenAndServe starts serving on tcp and blocks until shutdown completed.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.Listen error: %w", err)
	}
	return srv.Serve(ln)
}

// Serve accepts connections on ln until Shutdown or a termination signal.
func (srv *Server) Serve(ln net.Listener) error {
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signalChan)
	go srv.handleSignals()

	err := srv.Server.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		// listener failed before any shutdown was requested
		srv.Shutdown(context.Background())
		<-srv.shutdownChan
		return err
	}
	<-srv.shutdownChan
	return nil
}

func (srv *Server) handleSignals() {
	select {
	case sig := <-srv.signalChan:
		Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		srv.Shutdown(ctx)
	case <-srv.shutdownChan:
	}
}

// Shutdown drains the HTTP server and runs the hooks. Safe to call more than once.
func (srv *Server) Shutdown(ctx context.Context) {
	srv.shutdownOnce.Do(func() {
		defer close(srv.shutdownChan)
		if err := srv.Server.Shutdown(ctx); err != nil {
			Sugar.Errorf("HTTP server shutdown error: %v", err)
		} else {
			Sugar.Info("HTTP server shutdown success")
		}

		srv.hooksMu.Lock()
		hooks := srv.hooks
		srv.hooksMu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i].fn(ctx); err != nil {
				Sugar.Errorw("shutdown hook failed", "hook", hooks[i].name, "error", err)
			}
		}
	})
}
