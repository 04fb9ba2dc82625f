/*
Package micro documents the micro module.

micro compiles a declarative directive file into a running HTTP service
topology: listening ports, per-pattern method dispatch tables, and a layered
configuration namespace. This module is CLI-first and ships the micro command:

	go install github.com/nuetzliches/micro/cmd/micro@latest

Most implementation packages in this repository are internal and are not a
stable public Go API.
*/
package micro
