package htmlrules

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is the sentinel wrapped by every rule construction
// error. A rule set is never partially built: any error aborts the build.
var ErrInvalidConfig = errors.New("invalid rule configuration")

// ConfigError reports a malformed rule configuration. Path locates the
// offending entry, e.g. "a.attributes.href".
type ConfigError struct {
	Path string
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(path, format string, args ...any) error {
	return &ConfigError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
