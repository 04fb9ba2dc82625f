package schema

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ApplyOverrides reads a key=value override file and applies each line to an
// already-registered key, running the key's validator. Keys that were never
// registered are rejected with ErrUnknownKey. The schema freezes afterward,
// whether or not the file exists.
//
// A '#' starts a comment only at the start of a line or when preceded by
// whitespace, so values such as "one#two" survive intact.
func (c *Config) ApplyOverrides(path string) error {
	defer c.Freeze()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripOverrideComment(sc.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("%s line %d: missing '='", path, lineNo)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if err := c.Set(key, val); err != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return nil
}

func stripOverrideComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}
