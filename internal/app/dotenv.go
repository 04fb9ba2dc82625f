package app

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadDotenv applies KEY=VALUE pairs to the process environment so env=
// bindings in directive files resolve during development. Variables already
// set to a non-empty value win. Returns how many variables were applied.
func loadDotenv(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	applied := 0
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, err := parseDotenvLine(line)
		if err != nil {
			return applied, fmt.Errorf(".env line %d: %w", lineNo, err)
		}
		if cur, ok := os.LookupEnv(key); ok && cur != "" {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return applied, fmt.Errorf(".env line %d: %w", lineNo, err)
		}
		applied++
	}
	return applied, sc.Err()
}

func parseDotenvLine(line string) (string, string, error) {
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", fmt.Errorf("missing '='")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", fmt.Errorf("empty key")
	}
	val = strings.TrimSpace(val)
	if len(val) >= 2 {
		switch {
		case val[0] == '"' && val[len(val)-1] == '"':
			u, err := strconv.Unquote(val)
			if err != nil {
				return "", "", err
			}
			val = u
		case val[0] == '\'' && val[len(val)-1] == '\'':
			val = val[1 : len(val)-1]
		}
	}
	return key, val, nil
}
