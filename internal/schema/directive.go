package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// DefineDirective interprets a CONFIG directive's value line:
//
//	<dotted.name> [default=<literal>] [validate=int|bool|file] [env=<NAME>]
//
// The validator is selected before the default is applied so the default is
// validated immediately. Returns the registered key name.
func (c *Config) DefineDirective(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", fmt.Errorf("CONFIG requires a key name")
	}
	name := fields[0]

	var (
		validator Validator
		def       any
		hasDef    bool
		defRaw    string
		envVar    string
	)
	for _, tok := range fields[1:] {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			return "", fmt.Errorf("malformed option %q (expected key=value)", tok)
		}
		switch k {
		case "validate":
			f, err := ValidatorFor(v)
			if err != nil {
				return "", err
			}
			validator = f
		case "default":
			defRaw = v
			hasDef = true
		case "env":
			envVar = v
		default:
			return "", fmt.Errorf("unknown option %q", k)
		}
	}
	if hasDef {
		def = defRaw
	}

	if err := c.Define(name, def, validator, envVar); err != nil {
		return "", err
	}
	return name, nil
}

// DefineServerDirective interprets a CONFIG_SERVER directive's value line:
//
//	<name> <port>
//
// It expands to the five conventional listener keys and returns their names.
func (c *Config) DefineServerDirective(raw string) ([]string, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return nil, fmt.Errorf("CONFIG_SERVER requires <name> <port>")
	}
	name := fields[0]
	port, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("CONFIG_SERVER port %q: %w", fields[1], ErrValidation)
	}

	type def struct {
		suffix    string
		value     any
		validator Validator
	}
	defs := []def{
		{"port", port, ValidateInt},
		{"is_active", true, ValidateBool},
		{"ssl.is_active", false, ValidateBool},
		{"ssl.keyfile", nil, ValidateFile},
		{"ssl.certfile", nil, ValidateFile},
	}

	keys := make([]string, 0, len(defs))
	for _, d := range defs {
		key := name + "." + d.suffix
		if err := c.Define(key, d.value, d.validator, ""); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
