package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nuetzliches/micro/internal/registry"
	"github.com/nuetzliches/micro/internal/rest"
)

func writeDirectives(t *testing.T, src, overrides string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "micro")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	overridePath := filepath.Join(dir, "config")
	if overrides != "" {
		if err := os.WriteFile(overridePath, []byte(overrides), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return path, overridePath
}

func TestParseInertConfigOnly(t *testing.T) {
	path, overridePath := writeDirectives(t,
		"CONFIG app.name default=micro\nCONFIG_SERVER api 8080\nSERVER api\nROUTE /ping\nGET handle.ping\n",
		"app.name = staging\n")

	// ConfigOnly must resolve the namespace without handle.ping registered.
	ctl, err := parseInert(path, overridePath, registry.New(), true)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ctl.Config.GetString("app.name"); v != "staging" {
		t.Fatalf("app.name = %q", v)
	}
	if v, _ := ctl.Config.GetInt("api.port"); v != 8080 {
		t.Fatalf("api.port = %d", v)
	}
}

func TestParseInertFullValidation(t *testing.T) {
	path, overridePath := writeDirectives(t,
		"PORT 12345\nROUTE /ping\nGET handle.ping\n", "")

	if _, err := parseInert(path, overridePath, registry.New(), false); err == nil {
		t.Fatal("full validation should reject the unregistered handler")
	}

	reg := registry.New()
	reg.RegisterHandler("handle.ping", func(*rest.Request) (any, error) { return "pong", nil })
	if _, err := parseInert(path, overridePath, reg, false); err != nil {
		t.Fatal(err)
	}
}
