// Package listener is the registry compiled topologies are handed to. It
// binds TCP listeners at registration time so an un-registrable server
// fails startup instead of failing later, and serves them once Serve runs.
package listener

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// ErrRegistration is returned when a listener cannot be bound.
var ErrRegistration = errors.New("listener registration failed")

// TLS carries the key material for an SSL-enabled listener.
type TLS struct {
	KeyFile  string
	CertFile string
}

type entry struct {
	name    string
	port    int
	handler http.Handler
	ln      net.Listener
	srv     *http.Server
}

// Registry accumulates registered listeners.
type Registry struct {
	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Wrap, when set, decorates each handler at serve time (access logs,
	// tracing). It runs after the full topology compiled, so middleware
	// may consult the frozen config namespace.
	Wrap func(name string, h http.Handler) http.Handler

	// Inert records registrations without binding sockets. Used by
	// `micro validate`, which compiles the topology without serving it.
	Inert bool

	entries []entry
}

func New(logger *slog.Logger) *Registry {
	return &Registry{Logger: logger}
}

// Register binds port and records the handler for Serve.
func (r *Registry) Register(name string, port int, h http.Handler, t *TLS) error {
	e := entry{name: name, port: port, handler: h}
	if !r.Inert {
		ln, err := listen(port, t)
		if err != nil {
			return fmt.Errorf("%w: server %q port %d: %v", ErrRegistration, name, port, err)
		}
		e.ln = ln
	}
	r.entries = append(r.entries, e)
	return nil
}

func listen(port int, t *TLS) (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return ln, nil
	}
	cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	return tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}}), nil
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int { return len(r.entries) }

// Ports returns the registered ports in registration order.
func (r *Registry) Ports() []int {
	ports := make([]int, 0, len(r.entries))
	for _, e := range r.entries {
		ports = append(ports, e.port)
	}
	return ports
}

// Serve starts an HTTP server per registered listener. A server failing for
// any reason other than clean shutdown logs and invokes cancel so the whole
// process can unwind.
func (r *Registry) Serve(cancel context.CancelFunc) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for i := range r.entries {
		e := &r.entries[i]
		if e.ln == nil {
			continue
		}
		h := e.handler
		if r.Wrap != nil {
			h = r.Wrap(e.name, h)
		}
		e.srv = &http.Server{Handler: h}
		go func(name string, srv *http.Server, ln net.Listener) {
			err := srv.Serve(ln)
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				return
			}
			logger.Error("http_server_error", slog.String("name", name), slog.Any("err", err))
			if cancel != nil {
				cancel()
			}
		}(e.name, e.srv, e.ln)
		logger.Info("listening", slog.String("name", e.name), slog.Int("port", e.port))
	}
}

// Shutdown sweeps all running servers within ctx's deadline.
func (r *Registry) Shutdown(ctx context.Context) {
	for i := range r.entries {
		if r.entries[i].srv != nil {
			_ = r.entries[i].srv.Shutdown(ctx)
		} else if r.entries[i].ln != nil {
			_ = r.entries[i].ln.Close()
		}
	}
}
