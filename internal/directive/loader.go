package directive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSourceNotFound is returned when a directive file or IMPORT target
	// does not exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrCyclicImport is returned when a file ends up importing itself,
	// directly or through a chain.
	ErrCyclicImport = errors.New("cyclic import")
)

// Line is one raw physical line tagged with its origin for error messages.
type Line struct {
	File string
	Num  int
	Text string
}

// Loader expands IMPORT directives recursively into a flat line stream.
//
// ModuleRoots resolves the first segment of dotted IMPORT targets
// ("lib.routes.micro" joins ModuleRoots["lib"] with "routes/micro") to a
// directory; embedding programs populate it explicitly.
type Loader struct {
	ModuleRoots map[string]string
}

// Load reads path and returns its lines with every IMPORT line replaced,
// recursively, by the imported file's lines. Comments and blank lines are
// preserved; only IMPORT lines are substituted. A file may be imported
// any number of times from unrelated branches; only a genuine cycle fails.
func (l *Loader) Load(path string) ([]Line, error) {
	var lines []Line
	if err := l.load(path, map[string]bool{}, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (l *Loader) load(path string, active map[string]bool, out *[]Line) error {
	if active[path] {
		return fmt.Errorf("%w: %s", ErrCyclicImport, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return err
	}

	active[path] = true
	defer delete(active, path)

	dir := filepath.Dir(path)
	raw := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	for n, text := range raw {
		fields := strings.Fields(text)
		if len(fields) > 1 && strings.ToLower(fields[0]) == "import" {
			target := strings.Join(fields[1:], " ")
			resolved, err := l.resolve(target, dir)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", path, n+1, err)
			}
			if err := l.load(resolved, active, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, Line{File: path, Num: n + 1, Text: text})
	}
	return nil
}

// resolve maps an IMPORT target to a file path: dotted targets go through
// ModuleRoots, absolute paths stand, anything else is relative to the
// importing file's directory.
func (l *Loader) resolve(target, dir string) (string, error) {
	if !strings.ContainsRune(target, filepath.Separator) && strings.Contains(target, ".") {
		parts := strings.Split(target, ".")
		root, ok := l.ModuleRoots[parts[0]]
		if !ok {
			return "", fmt.Errorf("%w: unknown module %q in import %q", ErrSourceNotFound, parts[0], target)
		}
		return filepath.Join(append([]string{root}, parts[1:]...)...), nil
	}
	if filepath.IsAbs(target) {
		return target, nil
	}
	return filepath.Join(dir, target), nil
}
