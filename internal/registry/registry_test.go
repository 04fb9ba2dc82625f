package registry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nuetzliches/micro/internal/rest"
	"github.com/nuetzliches/micro/internal/schema"
)

func TestResolution(t *testing.T) {
	r := New()
	r.RegisterHandler("handle.ping", func(*rest.Request) (any, error) { return "pong", nil })
	r.RegisterFunc("app.setup", func(*schema.Config) error { return nil })

	if _, err := r.Handler("handle.ping"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Func("app.setup"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Handler("handle.missing"); !errors.Is(err, ErrResolution) {
		t.Fatalf("err = %v, want ErrResolution", err)
	}
	if _, err := r.Func("app.missing"); !errors.Is(err, ErrResolution) {
		t.Fatalf("err = %v, want ErrResolution", err)
	}
	if _, err := r.Class("lib.missing"); !errors.Is(err, ErrResolution) {
		t.Fatalf("err = %v, want ErrResolution", err)
	}
}

func TestDefaultClassRegistered(t *testing.T) {
	r := New()
	class, err := r.Class(DefaultClassName)
	if err != nil {
		t.Fatal(err)
	}

	m := rest.NewMapper()
	if err := m.Add("/ping", map[string]rest.Handler{
		"get": func(*rest.Request) (any, error) { return "pong", nil },
	}); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	class(m, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("response = %d %q", rec.Code, rec.Body.String())
	}
}

func TestDefaultClassReadsSection(t *testing.T) {
	cfg := schema.New()
	if _, err := cfg.DefineDirective("api.hide_stack_trace default=false validate=bool"); err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.DefineDirective("api.http_max_content_length default=64 validate=int"); err != nil {
		t.Fatal(err)
	}

	r := New()
	class, err := r.Class(DefaultClassName)
	if err != nil {
		t.Fatal(err)
	}
	srv, ok := class(rest.NewMapper(), cfg.Section("api")).(*rest.Server)
	if !ok {
		t.Fatal("default class should build a rest.Server")
	}
	if srv.HideStackTrace {
		t.Fatal("hide_stack_trace override not honored")
	}
	if srv.MaxContentLength != 64 {
		t.Fatalf("max content length = %d", srv.MaxContentLength)
	}
}
