package rest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Handler is one REST endpoint. Pattern capture groups arrive in
// Request.Args. The returned value is coerced to a Result; see coerce.
type Handler func(*Request) (any, error)

type entry struct {
	pattern string
	re      *regexp.Regexp
	methods map[string]Handler
}

// Mapper resolves a request path to a handler. Patterns are anchored
// regular expressions evaluated in insertion order; the first path match
// wins, even when its method table lacks the request method.
type Mapper struct {
	entries []entry
}

func NewMapper() *Mapper {
	return &Mapper{}
}

// Add registers a pattern with its method table. Method names are stored
// lower-case ("get", "post", "put", "delete").
func (m *Mapper) Add(pattern string, methods map[string]Handler) error {
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return fmt.Errorf("route pattern %q: %w", pattern, err)
	}
	normalized := make(map[string]Handler, len(methods))
	for name, h := range methods {
		normalized[strings.ToLower(name)] = h
	}
	m.entries = append(m.entries, entry{pattern: pattern, re: re, methods: normalized})
	return nil
}

// Len returns the number of registered patterns.
func (m *Mapper) Len() int { return len(m.entries) }

// Match resolves path+method. When the path matches but the method does
// not, handler is nil and allow carries the methods the pattern supports.
func (m *Mapper) Match(path, method string) (h Handler, args []string, allow []string, found bool) {
	method = strings.ToLower(method)
	for _, e := range m.entries {
		groups := e.re.FindStringSubmatch(path)
		if groups == nil {
			continue
		}
		h, ok := e.methods[method]
		if !ok {
			allow := make([]string, 0, len(e.methods))
			for name := range e.methods {
				allow = append(allow, strings.ToUpper(name))
			}
			sort.Strings(allow)
			return nil, nil, allow, true
		}
		return h, groups[1:], nil, true
	}
	return nil, nil, nil, false
}
