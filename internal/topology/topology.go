// Package topology accumulates the servers and routes a directive file
// declares and finalizes them into listener registrations.
package topology

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nuetzliches/micro/internal/listener"
	"github.com/nuetzliches/micro/internal/registry"
	"github.com/nuetzliches/micro/internal/rest"
	"github.com/nuetzliches/micro/internal/schema"
)

// ErrDuplicatePort is returned when two servers claim the same port.
var ErrDuplicatePort = errors.New("port already defined")

// DefaultServerName is used for servers opened by a bare PORT directive.
const DefaultServerName = "default"

// Route pairs a URL pattern with its per-method handler table. Re-adding a
// method on a still-open route overwrites the previous handler.
type Route struct {
	Pattern string
	Methods map[string]rest.Handler
}

// Server is one listening endpoint being assembled. Exactly one route is
// open at a time; AddRoute closes the previous one onto the route list.
type Server struct {
	Name   string
	Port   int
	Active bool
	Class  string
	SSL    *listener.TLS

	sec    *schema.Section
	routes []*Route
	open   *Route
}

// NewServer builds a server from a SERVER directive's config section.
// The port key is required; is_active defaults to true; the handler key
// selects a registered handler class; ssl.* keys apply when ssl.is_active.
func NewServer(name string, sec *schema.Section) (*Server, error) {
	port, ok := sec.Int("port")
	if !ok {
		return nil, fmt.Errorf("server %q: config key %s.port is required", name, name)
	}

	s := &Server{
		Name:   name,
		Port:   port,
		Active: sec.BoolOr("is_active", true),
		Class:  sec.StringOr("handler", registry.DefaultClassName),
		sec:    sec,
	}

	if sec.BoolOr("ssl.is_active", false) {
		keyfile, okKey := sec.String("ssl.keyfile")
		certfile, okCert := sec.String("ssl.certfile")
		if !okKey || !okCert {
			return nil, fmt.Errorf("server %q: ssl requires %s.ssl.keyfile and %s.ssl.certfile", name, name, name)
		}
		s.SSL = &listener.TLS{KeyFile: keyfile, CertFile: certfile}
	}
	return s, nil
}

// NewPortServer builds the anonymous server a bare PORT directive opens.
func NewPortServer(value string) (*Server, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("PORT %q: not an integer", value)
	}
	return &Server{
		Name:   DefaultServerName,
		Port:   port,
		Active: true,
		Class:  registry.DefaultClassName,
	}, nil
}

// AddRoute closes any open route onto the route list and opens a new one.
func (s *Server) AddRoute(pattern string) {
	s.closeRoute()
	s.open = &Route{Pattern: pattern, Methods: make(map[string]rest.Handler)}
}

// AddMethod attaches a handler to the open route's method table.
func (s *Server) AddMethod(method string, h rest.Handler) error {
	if s.open == nil {
		return fmt.Errorf("server %q: no open route for %s", s.Name, strings.ToUpper(method))
	}
	s.open.Methods[strings.ToLower(method)] = h
	return nil
}

func (s *Server) closeRoute() {
	if s.open != nil {
		s.routes = append(s.routes, s.open)
		s.open = nil
	}
}

// Routes returns the finalized route list in declaration order.
func (s *Server) Routes() []*Route {
	return s.routes
}

// Finalize closes the open route and, if the server is active, registers it
// with the listener registry. A registration failure is logged and returned
// as fatal: an un-registrable listener means the topology cannot be honored.
func (s *Server) Finalize(reg *registry.Registry, listeners *listener.Registry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	s.closeRoute()
	if !s.Active {
		logger.Info("server_inactive", slog.String("name", s.Name), slog.Int("port", s.Port))
		return nil
	}

	class, err := reg.Class(s.Class)
	if err != nil {
		return err
	}

	mapper := rest.NewMapper()
	for _, rt := range s.routes {
		if err := mapper.Add(rt.Pattern, rt.Methods); err != nil {
			return err
		}
	}

	if err := listeners.Register(s.Name, s.Port, class(mapper, s.sec), s.SSL); err != nil {
		logger.Error("unable_to_add_server", slog.String("name", s.Name), slog.Int("port", s.Port), slog.Any("err", err))
		return err
	}
	return nil
}

// Ports enforces the one-server-per-port invariant across the topology.
type Ports struct {
	claimed map[int]string
}

func NewPorts() *Ports {
	return &Ports{claimed: make(map[int]string)}
}

func (p *Ports) Claim(port int, name string) error {
	if owner, ok := p.claimed[port]; ok {
		return fmt.Errorf("%w: port %d already defined for server %q", ErrDuplicatePort, port, owner)
	}
	p.claimed[port] = name
	return nil
}
