package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/flarebyte/nbrun/internal/errors"
)

// ConfigParseError reports a configuration document that exists but cannot
// be used. It aborts the process before any stage runs.
type ConfigParseError struct {
	Path  string
	Cause error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Cause)
}

func (e *ConfigParseError) Unwrap() error { return e.Cause }

// ExitCode is the process status for an unusable configuration.
func (e *ConfigParseError) ExitCode() int { return 2 }

// NewConfigParseError wraps cause for path.
func NewConfigParseError(path string, cause error) error {
	return errors.WithStack(&ConfigParseError{Path: path, Cause: cause})
}

// Load reads the parameter document at path.
//
// A missing file yields an empty set. The format follows the extension:
// .json, .toml, anything else is read as YAML.
func Load(path string) (Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return Set{}, NewConfigParseError(path, err)
	}
	m, err := decode(path, b)
	if err != nil {
		return Set{}, NewConfigParseError(path, err)
	}
	return FromMap(m), nil
}

func decode(path string, b []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string]any{}, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeJSON(b)
	case ".toml":
		return decodeTOML(b)
	default:
		return decodeYAML(b)
	}
}

func decodeYAML(b []byte) (map[string]any, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return topLevelMapping(v)
}

func decodeJSON(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return topLevelMapping(normalizeJSONNumbers(v))
}

func decodeTOML(b []byte) (map[string]any, error) {
	m := map[string]any{}
	if _, err := toml.Decode(string(b), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func topLevelMapping(v any) (map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return x, nil
	case map[any]any:
		return stringKeys(x), nil
	default:
		return nil, errors.Newf("top-level must be mapping, got %T", v)
	}
}

// normalizeJSONNumbers turns json.Number into int64 when integral, float64 otherwise.
func normalizeJSONNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, vv := range x {
			x[k] = normalizeJSONNumbers(vv)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalizeJSONNumbers(x[i])
		}
		return x
	default:
		return v
	}
}
