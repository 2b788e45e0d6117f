package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is matched by every error reporting a structurally invalid
// manifest. Use errors.Is to test for it.
var ErrSchema = errors.New("manifest schema error")

// ConfigError describes a schema violation. Module and Key locate the
// offending entry when known; Key may legitimately be the empty selector, so
// HasKey says whether it is set.
type ConfigError struct {
	Source string // file the manifest was read from, if any
	Line   int    // 1-based line, when the codec tracks positions
	Module string
	Key    string
	HasKey bool
	Msg    string
	Err    error // underlying decoder error, if any
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	if e.Module != "" {
		fmt.Fprintf(&b, "module %q: ", e.Module)
	}
	if e.HasKey {
		fmt.Fprintf(&b, "key %q: ", e.Key)
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrSchema }

func schemaErrorf(module string, format string, args ...any) *ConfigError {
	return &ConfigError{Module: module, Msg: fmt.Sprintf(format, args...)}
}

func keyErrorf(module, key string, format string, args ...any) *ConfigError {
	return &ConfigError{Module: module, Key: key, HasKey: true, Msg: fmt.Sprintf(format, args...)}
}

// withSource stamps the file name on a ConfigError, leaving other errors
// untouched.
func withSource(err error, source string) error {
	var ce *ConfigError
	if source != "" && errors.As(err, &ce) && ce.Source == "" {
		ce.Source = source
	}
	return err
}
