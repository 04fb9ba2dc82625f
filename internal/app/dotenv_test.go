package app

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDotenv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDotenv(t *testing.T) {
	t.Setenv("MICRO_DOTENV_A", "")
	t.Setenv("MICRO_DOTENV_B", "")
	t.Setenv("MICRO_DOTENV_C", "")
	path := writeDotenv(t, `
# comment
MICRO_DOTENV_A=plain
MICRO_DOTENV_B="quoted value"
MICRO_DOTENV_C='single quoted'
`)
	applied, err := loadDotenv(path)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 3 {
		t.Fatalf("applied = %d", applied)
	}
	if got := os.Getenv("MICRO_DOTENV_A"); got != "plain" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("MICRO_DOTENV_B"); got != "quoted value" {
		t.Fatalf("B = %q", got)
	}
	if got := os.Getenv("MICRO_DOTENV_C"); got != "single quoted" {
		t.Fatalf("C = %q", got)
	}
}

func TestLoadDotenvExistingWins(t *testing.T) {
	t.Setenv("MICRO_DOTENV_D", "already")
	path := writeDotenv(t, "MICRO_DOTENV_D=overwritten\n")
	applied, err := loadDotenv(path)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 0 {
		t.Fatalf("applied = %d", applied)
	}
	if got := os.Getenv("MICRO_DOTENV_D"); got != "already" {
		t.Fatalf("D = %q", got)
	}
}

func TestLoadDotenvMalformed(t *testing.T) {
	path := writeDotenv(t, "NO_EQUALS_SIGN\n")
	if _, err := loadDotenv(path); err == nil {
		t.Fatal("expected missing '=' to fail")
	}
	path = writeDotenv(t, "=value\n")
	if _, err := loadDotenv(path); err == nil {
		t.Fatal("expected empty key to fail")
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if _, err := loadDotenv(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
