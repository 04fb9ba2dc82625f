package main

import (
	"os"

	"github.com/nuetzliches/micro/internal/app"
	"github.com/nuetzliches/micro/internal/registry"
	"github.com/nuetzliches/micro/internal/rest"
)

func main() {
	reg := registry.New()
	reg.RegisterHandler("micro.ping", func(r *rest.Request) (any, error) {
		return map[string]string{"ping": "pong"}, nil
	})
	os.Exit(app.Main(os.Args, reg))
}
