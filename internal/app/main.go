// Package app is the micro command: flag parsing, subcommand dispatch, and
// the glue between the directive interpreter and the process environment.
package app

import (
	"fmt"
	"os"

	"github.com/nuetzliches/micro/internal/registry"
)

var (
	version   = "0.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Main dispatches subcommands. reg carries the symbols (handlers, setup,
// teardown, handler classes) the embedding program registered.
func Main(args []string, reg *registry.Registry) int {
	if len(args) < 2 {
		printHelp()
		return 2
	}

	switch args[1] {
	case "run":
		return run(args[2:], reg)
	case "config":
		return configCmd(args[2:], reg)
	case "validate":
		return validateCmd(args[2:], reg)
	case "version":
		return versionCmd(args[2:])
	case "help", "-h", "--help":
		printHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[1])
		printHelp()
		return 2
	}
}

func printHelp() {
	fmt.Fprintln(os.Stdout, "micro")
	fmt.Fprintln(os.Stdout, "")
	fmt.Fprintln(os.Stdout, "Usage:")
	fmt.Fprintln(os.Stdout, "  micro run [--config ./micro] [--overrides ./config] [--pid-file ./micro.pid] [--watch] [--log-level info] [--dotenv ./.env] [--module-root name=dir]")
	fmt.Fprintln(os.Stdout, "  micro config [key] [--config ./micro] [--overrides ./config]")
	fmt.Fprintln(os.Stdout, "  micro validate [--config ./micro] [--overrides ./config]")
	fmt.Fprintln(os.Stdout, "  micro version [--long]")
}
