// Package paramfile renders a parameter set as the YAML document handed to
// the notebook executor (papermill -f).
package paramfile

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/params"
)

// Marshal returns canonical YAML for ps: mapping keys sorted at every level,
// two-space indent, exactly one trailing newline. An empty set renders as "{}\n".
func Marshal(ps params.Set) ([]byte, error) {
	top := canonicalNode(ps.Map())

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, errors.Wrap(err, "encode parameters")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encode parameters")
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

// WriteTemp writes ps to a new file in dir (os.TempDir when empty) and
// returns its path. The caller removes it.
func WriteTemp(dir string, ps params.Set) (string, error) {
	b, err := Marshal(ps)
	if err != nil {
		return "", err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "create parameter dir")
		}
	}
	f, err := os.CreateTemp(dir, "nbrun-params-*.yaml")
	if err != nil {
		return "", errors.Wrap(err, "create parameter file")
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "write parameter file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "close parameter file")
	}
	return filepath.Clean(f.Name()), nil
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func scalarFrom(v any) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}

func canonicalNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case map[string]any:
		return canonicalMapNode(x)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range x {
			n.Content = append(n.Content, canonicalNode(it))
		}
		return n
	default:
		return scalarFrom(x)
	}
}

func canonicalMapNode(m map[string]any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	if len(m) == 0 {
		n.Style = yaml.FlowStyle
		return n
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Content = append(n.Content, scalarNode(k), canonicalNode(m[k]))
	}
	return n
}
