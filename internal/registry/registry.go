// Package registry maps the symbol names used by directive files to Go
// values registered at program-build time. The interpreter looks symbols up
// here instead of resolving arbitrary module paths at runtime.
package registry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nuetzliches/micro/internal/rest"
	"github.com/nuetzliches/micro/internal/schema"
)

// ErrResolution is returned when a directive references a symbol that was
// never registered.
var ErrResolution = errors.New("unresolved symbol")

// LifecycleFunc is the signature of SETUP and TEARDOWN symbols.
type LifecycleFunc func(*schema.Config) error

// HandlerClass builds the http.Handler for a listener from its compiled
// route mapper and config section. SERVER directives select a class by name
// via the section's "handler" key; DefaultClassName is used otherwise.
type HandlerClass func(mapper *rest.Mapper, sec *schema.Section) http.Handler

// DefaultClassName names the built-in REST handler class.
const DefaultClassName = "micro.rest"

// Registry holds the symbol tables. The zero value is not usable; call New.
type Registry struct {
	handlers map[string]rest.Handler
	funcs    map[string]LifecycleFunc
	classes  map[string]HandlerClass
}

func New() *Registry {
	r := &Registry{
		handlers: make(map[string]rest.Handler),
		funcs:    make(map[string]LifecycleFunc),
		classes:  make(map[string]HandlerClass),
	}
	r.RegisterClass(DefaultClassName, func(mapper *rest.Mapper, sec *schema.Section) http.Handler {
		srv := rest.NewServer(mapper)
		if sec != nil {
			srv.HideStackTrace = sec.BoolOr("hide_stack_trace", true)
			srv.MaxContentLength = int64(sec.IntOr("http_max_content_length", 0))
		}
		return srv
	})
	return r
}

// RegisterHandler binds a GET/POST/PUT/DELETE symbol.
func (r *Registry) RegisterHandler(name string, h rest.Handler) {
	r.handlers[name] = h
}

// RegisterFunc binds a SETUP/TEARDOWN symbol.
func (r *Registry) RegisterFunc(name string, f LifecycleFunc) {
	r.funcs[name] = f
}

// RegisterClass binds a handler-class symbol.
func (r *Registry) RegisterClass(name string, c HandlerClass) {
	r.classes[name] = c
}

func (r *Registry) Handler(name string) (rest.Handler, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: handler %q", ErrResolution, name)
	}
	return h, nil
}

func (r *Registry) Func(name string) (LifecycleFunc, error) {
	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: function %q", ErrResolution, name)
	}
	return f, nil
}

func (r *Registry) Class(name string) (HandlerClass, error) {
	c, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: handler class %q", ErrResolution, name)
	}
	return c, nil
}
