package directive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nuetzliches/micro/internal/listener"
	"github.com/nuetzliches/micro/internal/registry"
	"github.com/nuetzliches/micro/internal/schema"
	"github.com/nuetzliches/micro/internal/topology"
)

var (
	// ErrInvalidEvent is returned for a directive that is illegal in the
	// interpreter's current state.
	ErrInvalidEvent = errors.New("invalid directive for state")

	// ErrDirectiveSyntax is returned for a directive missing its value.
	ErrDirectiveSyntax = errors.New("malformed directive")
)

// EnvSetup overrides the SETUP directive's symbol name when set.
const EnvSetup = "MICRO_SETUP"

type state int

const (
	stateInit state = iota
	stateConfig
	stateServerOpen
	stateRouteOpen
	stateDone
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateConfig:
		return "config"
	case stateServerOpen:
		return "server"
	case stateRouteOpen:
		return "route"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// interpreter drives the directive finite-state machine. State transitions
// are explicit: step returns the next state and whether the same directive
// must be re-dispatched against it, and dispatch loops until settled.
type interpreter struct {
	cfg          *schema.Config
	reg          *registry.Registry
	listeners    *listener.Registry
	logger       *slog.Logger
	overridePath string

	st         state
	ports      *topology.Ports
	server     *topology.Server
	configKeys []string
	teardown   registry.LifecycleFunc
}

func newInterpreter(reg *registry.Registry, listeners *listener.Registry, overridePath string, logger *slog.Logger) *interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &interpreter{
		cfg:          schema.New(),
		reg:          reg,
		listeners:    listeners,
		logger:       logger,
		overridePath: overridePath,
		st:           stateInit,
		ports:        topology.NewPorts(),
		teardown:     func(*schema.Config) error { return nil },
	}
}

// handle dispatches one directive, wrapping any failure with the
// directive's origin so compile errors always name their file and line.
func (it *interpreter) handle(d Directive) error {
	if err := it.dispatch(d); err != nil {
		return fmt.Errorf("%w, line=%d of %s", err, d.Line, d.File)
	}
	return nil
}

func (it *interpreter) dispatch(d Directive) error {
	if d.Name != "done" && d.Value == "" {
		return fmt.Errorf("%w: %s requires a value", ErrDirectiveSyntax, d.Name)
	}
	for {
		next, again, err := it.step(it.st, d)
		if err != nil {
			return err
		}
		it.st = next
		if !again {
			return nil
		}
	}
}

func (it *interpreter) step(st state, d Directive) (state, bool, error) {
	switch st {
	case stateInit:
		return it.stepInit(d)
	case stateConfig:
		return it.stepConfig(d)
	case stateServerOpen:
		return it.stepServer(d)
	case stateRouteOpen:
		return it.stepRoute(d)
	case stateDone:
		return stateDone, false, fmt.Errorf("%w: unexpected %q after done", ErrInvalidEvent, d.Name)
	default:
		return st, false, fmt.Errorf("unknown interpreter state %d", st)
	}
}

func (it *interpreter) stepInit(d Directive) (state, bool, error) {
	switch d.Name {
	case "config", "config_server":
		// Switch states before processing so the first config directive
		// is not lost.
		return stateConfig, true, nil
	case "setup":
		name := d.Value
		if env := os.Getenv(EnvSetup); env != "" {
			name = env
		}
		f, err := it.reg.Func(name)
		if err != nil {
			return stateInit, false, err
		}
		if err := f(it.cfg); err != nil {
			return stateInit, false, fmt.Errorf("setup %s: %w", name, err)
		}
		return stateInit, false, nil
	case "teardown":
		f, err := it.reg.Func(d.Value)
		if err != nil {
			return stateInit, false, err
		}
		it.teardown = f
		return stateInit, false, nil
	case "server":
		if err := it.openServer(d.Value); err != nil {
			return stateInit, false, err
		}
		return stateServerOpen, false, nil
	case "port":
		if err := it.openPort(d.Value); err != nil {
			return stateInit, false, err
		}
		return stateServerOpen, false, nil
	case "done":
		return stateDone, false, nil
	default:
		return stateInit, false, fmt.Errorf("%w: %q", ErrInvalidEvent, d.Name)
	}
}

// stepConfig consumes the contiguous CONFIG/CONFIG_SERVER prefix. The
// first non-config directive applies the override file exactly once,
// freezing the schema, and falls through to init-state handling.
func (it *interpreter) stepConfig(d Directive) (state, bool, error) {
	switch d.Name {
	case "config":
		key, err := it.cfg.DefineDirective(d.Value)
		if err != nil {
			return stateConfig, false, err
		}
		it.configKeys = append(it.configKeys, key)
		return stateConfig, false, nil
	case "config_server":
		keys, err := it.cfg.DefineServerDirective(d.Value)
		if err != nil {
			return stateConfig, false, err
		}
		it.configKeys = append(it.configKeys, keys...)
		return stateConfig, false, nil
	default:
		if err := it.cfg.ApplyOverrides(it.overridePath); err != nil {
			return stateConfig, false, err
		}
		return stateInit, true, nil
	}
}

func (it *interpreter) stepServer(d Directive) (state, bool, error) {
	switch d.Name {
	case "route":
		it.server.AddRoute(d.Value)
		return stateRouteOpen, false, nil
	case "done":
		if err := it.finalizeServer(); err != nil {
			return stateServerOpen, false, err
		}
		return stateDone, false, nil
	default:
		return stateServerOpen, false, fmt.Errorf("%w: %q (a server must be followed by a route or done)", ErrInvalidEvent, d.Name)
	}
}

func (it *interpreter) stepRoute(d Directive) (state, bool, error) {
	switch d.Name {
	case "get", "post", "put", "delete":
		h, err := it.reg.Handler(d.Value)
		if err != nil {
			return stateRouteOpen, false, err
		}
		if err := it.server.AddMethod(d.Name, h); err != nil {
			return stateRouteOpen, false, err
		}
		return stateRouteOpen, false, nil
	case "route":
		it.server.AddRoute(d.Value)
		return stateRouteOpen, false, nil
	case "server":
		if err := it.finalizeServer(); err != nil {
			return stateRouteOpen, false, err
		}
		if err := it.openServer(d.Value); err != nil {
			return stateRouteOpen, false, err
		}
		return stateServerOpen, false, nil
	case "port":
		if err := it.finalizeServer(); err != nil {
			return stateRouteOpen, false, err
		}
		if err := it.openPort(d.Value); err != nil {
			return stateRouteOpen, false, err
		}
		return stateServerOpen, false, nil
	case "done":
		if err := it.finalizeServer(); err != nil {
			return stateRouteOpen, false, err
		}
		return stateDone, false, nil
	default:
		return stateRouteOpen, false, fmt.Errorf("%w: %q", ErrInvalidEvent, d.Name)
	}
}

func (it *interpreter) openServer(name string) error {
	srv, err := topology.NewServer(name, it.cfg.Section(name))
	if err != nil {
		return err
	}
	if err := it.ports.Claim(srv.Port, srv.Name); err != nil {
		return err
	}
	it.server = srv
	return nil
}

func (it *interpreter) openPort(value string) error {
	srv, err := topology.NewPortServer(value)
	if err != nil {
		return err
	}
	if err := it.ports.Claim(srv.Port, srv.Name); err != nil {
		return err
	}
	it.server = srv
	return nil
}

func (it *interpreter) finalizeServer() error {
	return it.server.Finalize(it.reg, it.listeners, it.logger)
}
