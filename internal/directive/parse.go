// Package directive implements the directive-language interpreter: source
// loading with recursive imports, lexing, the ordering finite-state
// machine, and the assembly of the resulting service topology.
package directive

import (
	"log/slog"
	"time"

	"github.com/nuetzliches/micro/internal/listener"
	"github.com/nuetzliches/micro/internal/registry"
	"github.com/nuetzliches/micro/internal/schema"
)

const (
	// DefaultSleep is the run loop's per-poll wait when loop.sleep is not
	// configured, in milliseconds.
	DefaultSleep = 100

	// DefaultMaxIterations bounds timer servicing per loop cycle when
	// loop.max_iterations is not configured.
	DefaultMaxIterations = 100
)

// DefaultOverridePath is the conventional override-file location.
const DefaultOverridePath = "config"

// Options configures a parse.
type Options struct {
	// Registry resolves handler/setup/teardown/handler-class symbols.
	Registry *registry.Registry

	// Listeners receives finalized active servers.
	Listeners *listener.Registry

	// ModuleRoots resolves dotted IMPORT targets.
	ModuleRoots map[string]string

	// OverridePath is the key=value override file applied when the schema
	// freezes. Empty means DefaultOverridePath.
	OverridePath string

	// ConfigOnly drives the interpreter for CONFIG/CONFIG_SERVER only;
	// all other directives are skipped and no servers are built.
	ConfigOnly bool

	Logger *slog.Logger
}

// Control is what a full parse produces: the run-loop parameters and the
// teardown hook, plus the frozen config namespace.
type Control struct {
	Sleep         time.Duration
	MaxIterations int
	Teardown      registry.LifecycleFunc

	Config *schema.Config
	Keys   []string
}

// Parse loads, lexes, and interprets a directive file. A synthesized done
// event one line past the last real line closes the stream, so the final
// server finalizes even without an explicit done directive.
func Parse(path string, opts Options) (*Control, error) {
	loader := &Loader{ModuleRoots: opts.ModuleRoots}
	lines, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	overridePath := opts.OverridePath
	if overridePath == "" {
		overridePath = DefaultOverridePath
	}

	it := newInterpreter(opts.Registry, opts.Listeners, overridePath, opts.Logger)
	for _, d := range Lex(lines) {
		if opts.ConfigOnly && d.Name != "config" && d.Name != "config_server" {
			continue
		}
		if err := it.handle(d); err != nil {
			return nil, err
		}
	}

	// An explicit DONE already drove the interpreter to its terminal state;
	// only synthesize one for files that end without it.
	if it.st != stateDone {
		doneFile, doneLine := path, 1
		if len(lines) > 0 {
			last := lines[len(lines)-1]
			doneFile, doneLine = last.File, last.Num+1
		}
		if err := it.handle(Directive{File: doneFile, Line: doneLine, Name: "done"}); err != nil {
			return nil, err
		}
	}

	ctl := &Control{
		Sleep:         DefaultSleep * time.Millisecond,
		MaxIterations: DefaultMaxIterations,
		Teardown:      it.teardown,
		Config:        it.cfg,
		Keys:          it.configKeys,
	}
	if ms, ok := it.cfg.GetInt("loop.sleep"); ok {
		ctl.Sleep = time.Duration(ms) * time.Millisecond
	}
	if n, ok := it.cfg.GetInt("loop.max_iterations"); ok {
		ctl.MaxIterations = n
	}
	return ctl, nil
}
