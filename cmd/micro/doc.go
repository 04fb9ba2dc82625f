// Command micro runs an HTTP service described by a directive file.
//
// A directive file names config keys, servers, routes and handlers; micro
// compiles it into listening HTTP servers. Programs embedding micro register
// their own handler symbols; this binary ships with the built-in micro.ping
// handler for smoke tests.
//
// Install:
//
//	go install github.com/nuetzliches/micro/cmd/micro@latest
//
// Usage:
//
//	micro run --config ./micro --overrides ./config
package main
