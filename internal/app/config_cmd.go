package app

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nuetzliches/micro/internal/directive"
	"github.com/nuetzliches/micro/internal/listener"
	"github.com/nuetzliches/micro/internal/registry"
)

// configCmd resolves the config namespace from a directive file and prints
// it. With a positional key, only that key's value is printed.
func configCmd(args []string, reg *registry.Registry) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "./micro", "path to directive file")
	overridesPath := fs.String("overrides", directive.DefaultOverridePath, "path to config override file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "config: expected at most one key")
		return 2
	}

	ctl, err := parseInert(*configPath, *overridesPath, reg, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	if fs.NArg() == 1 {
		key := strings.TrimSpace(fs.Arg(0))
		v, ok := ctl.Config.Lookup(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "config: unknown key %q\n", key)
			return 1
		}
		fmt.Fprintf(os.Stdout, "%v\n", v)
		return 0
	}

	for _, key := range ctl.Keys {
		v, _ := ctl.Config.Lookup(key)
		fmt.Fprintf(os.Stdout, "%s=%v\n", key, v)
	}
	return 0
}

// validateCmd compiles the full directive file, topology included, without
// binding any sockets.
func validateCmd(args []string, reg *registry.Registry) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "./micro", "path to directive file")
	overridesPath := fs.String("overrides", directive.DefaultOverridePath, "path to config override file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if _, err := parseInert(*configPath, *overridesPath, reg, false); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	fmt.Fprintln(os.Stdout, "ok")
	return 0
}

func parseInert(path, overrides string, reg *registry.Registry, configOnly bool) (*directive.Control, error) {
	logger := newDiscardLogger()
	return directive.Parse(path, directive.Options{
		Registry:     reg,
		Listeners:    &listener.Registry{Logger: logger, Inert: true},
		OverridePath: overrides,
		ConfigOnly:   configOnly,
		Logger:       logger,
	})
}
