package schema

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Validator coerces and checks a raw config value. Raw values arrive as
// strings from directives, override files, and the environment; defaults
// may already be typed.
type Validator func(any) (any, error)

// ValidatorFor maps a CONFIG directive's validate= option to a Validator.
func ValidatorFor(name string) (Validator, error) {
	switch name {
	case "int":
		return ValidateInt, nil
	case "bool":
		return ValidateBool, nil
	case "file":
		return ValidateFile, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedValidator, name)
	}
}

// ValidateInt accepts an integer or a string of digits and coerces to int.
func ValidateInt(v any) (any, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrValidation, t)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: %v is not an integer", ErrValidation, v)
	}
}

// ValidateBool accepts a bool or a case-insensitive "true"/"false" string.
func ValidateBool(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrValidation, t)
	default:
		return nil, fmt.Errorf("%w: %v is not a boolean", ErrValidation, v)
	}
}

// ValidateFile accepts a path naming an existing file.
func ValidateFile(v any) (any, error) {
	path, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a file path", ErrValidation, v)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not an existing file", ErrValidation, path)
	}
	return path, nil
}
