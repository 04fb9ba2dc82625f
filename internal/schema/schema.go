package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrUnrecognizedValidator is returned for a CONFIG directive whose
	// validate= option names an unknown validator.
	ErrUnrecognizedValidator = errors.New("unrecognized validation type")

	// ErrValidation is returned when a value fails its key's validator.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownKey is returned when an override file sets a key that was
	// never registered via CONFIG/CONFIG_SERVER. Unknown override keys are
	// rejected, not ignored.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrFrozen is returned when a key is defined after the schema froze.
	ErrFrozen = errors.New("config schema is frozen")
)

// Key is one registered configuration parameter.
//
// Resolution precedence: environment variable (captured at registration) >
// override-file value > default.
type Key struct {
	Name      string
	EnvVar    string
	validator Validator

	def     any
	envVal  any
	hasEnv  bool
	fileVal any
	hasFile bool
}

// Value resolves the key according to the documented precedence.
func (k *Key) Value() any {
	if k.hasEnv {
		return k.envVal
	}
	if k.hasFile {
		return k.fileVal
	}
	return k.def
}

// Config is the process-wide configuration namespace. Keys are registered
// while CONFIG/CONFIG_SERVER directives are interpreted; after the override
// file is applied the namespace freezes and becomes read-only.
type Config struct {
	keys   map[string]*Key
	order  []string
	frozen bool
}

func New() *Config {
	return &Config{keys: make(map[string]*Key)}
}

// Define registers a key. def may be nil (unset). If a validator is present
// the default is validated immediately. When envVar names a set environment
// variable, its value is captured (and validated) now and wins over any
// later override-file value.
func (c *Config) Define(name string, def any, v Validator, envVar string) error {
	if c.frozen {
		return fmt.Errorf("%w: cannot define %q", ErrFrozen, name)
	}
	if v != nil && def != nil {
		coerced, err := v(def)
		if err != nil {
			return fmt.Errorf("default for %q: %w", name, err)
		}
		def = coerced
	}

	k := &Key{Name: name, EnvVar: envVar, validator: v, def: def}
	if envVar != "" {
		if raw, ok := os.LookupEnv(envVar); ok {
			val := any(raw)
			if v != nil {
				coerced, err := v(raw)
				if err != nil {
					return fmt.Errorf("environment %s for %q: %w", envVar, name, err)
				}
				val = coerced
			}
			k.envVal = val
			k.hasEnv = true
		}
	}

	if _, exists := c.keys[name]; !exists {
		c.order = append(c.order, name)
	}
	c.keys[name] = k
	return nil
}

// Set applies an override-file value to an already-registered key.
func (c *Config) Set(name, raw string) error {
	k, ok := c.keys[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	val := any(raw)
	if k.validator != nil {
		coerced, err := k.validator(raw)
		if err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		val = coerced
	}
	k.fileVal = val
	k.hasFile = true
	return nil
}

// Freeze marks the schema read-only for definitions.
func (c *Config) Freeze()      { c.frozen = true }
func (c *Config) Frozen() bool { return c.frozen }

// Keys returns registered key names in registration order.
func (c *Config) Keys() []string {
	return append([]string(nil), c.order...)
}

// Lookup returns the resolved value of a key. ok is false when the key is
// not registered or resolves to nil.
func (c *Config) Lookup(name string) (any, bool) {
	k, ok := c.keys[name]
	if !ok {
		return nil, false
	}
	v := k.Value()
	return v, v != nil
}

// GetInt resolves a key as an integer. Digit strings are coerced.
func (c *Config) GetInt(name string) (int, bool) {
	v, ok := c.Lookup(name)
	if !ok {
		return 0, false
	}
	coerced, err := ValidateInt(v)
	if err != nil {
		return 0, false
	}
	return coerced.(int), true
}

// GetBool resolves a key as a boolean. "true"/"false" strings (any case)
// are coerced.
func (c *Config) GetBool(name string) (bool, bool) {
	v, ok := c.Lookup(name)
	if !ok {
		return false, false
	}
	coerced, err := ValidateBool(v)
	if err != nil {
		return false, false
	}
	return coerced.(bool), true
}

// GetString resolves a key as a string.
func (c *Config) GetString(name string) (string, bool) {
	v, ok := c.Lookup(name)
	if !ok {
		return "", false
	}
	if s, isStr := v.(string); isStr {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

// Section returns a dotted-prefix view of the namespace.
func (c *Config) Section(prefix string) *Section {
	return &Section{cfg: c, prefix: prefix}
}

// Defined reports whether any key is registered under the given dotted
// prefix (or with the exact name).
func (c *Config) Defined(prefix string) bool {
	if _, ok := c.keys[prefix]; ok {
		return true
	}
	for name := range c.keys {
		if strings.HasPrefix(name, prefix+".") {
			return true
		}
	}
	return false
}

// Section is a view of all keys below one dotted prefix.
type Section struct {
	cfg    *Config
	prefix string
}

func (s *Section) Name() string { return s.prefix }

func (s *Section) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "." + name
}

func (s *Section) Has(name string) bool {
	_, ok := s.cfg.Lookup(s.key(name))
	return ok
}

func (s *Section) Int(name string) (int, bool)    { return s.cfg.GetInt(s.key(name)) }
func (s *Section) Bool(name string) (bool, bool)  { return s.cfg.GetBool(s.key(name)) }
func (s *Section) String(name string) (string, bool) {
	return s.cfg.GetString(s.key(name))
}

// IntOr and BoolOr resolve with a fallback for optional keys.
func (s *Section) IntOr(name string, def int) int {
	if v, ok := s.Int(name); ok {
		return v
	}
	return def
}

func (s *Section) BoolOr(name string, def bool) bool {
	if v, ok := s.Bool(name); ok {
		return v
	}
	return def
}

func (s *Section) StringOr(name, def string) string {
	if v, ok := s.String(name); ok {
		return v
	}
	return def
}
