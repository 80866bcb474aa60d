package config

import (
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/flarebyte/nbrun/internal/errors"
)

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, errors.New("unsupported config format: expected .cue")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, errors.Wrap(err, "failed to read config")
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cue.Value{}, errors.Newf("cue: %v", err)
	}
	return v, nil
}

func field(v cue.Value, path string) cue.Value {
	return v.LookupPath(cue.ParsePath(path))
}

func invalidType(path, want string) error {
	return errors.Newf("invalid type for field: %s (expected %s)", path, want)
}

func lookupString(v cue.Value, path string, dst *string) (bool, error) {
	f := field(v, path)
	if !f.Exists() {
		return false, nil
	}
	if f.Kind() != cue.StringKind {
		return false, invalidType(path, "string")
	}
	if err := f.Decode(dst); err != nil {
		return false, errors.Newf("invalid value for %s: %v", path, err)
	}
	return true, nil
}

func lookupBool(v cue.Value, path string, dst *bool) (bool, error) {
	f := field(v, path)
	if !f.Exists() {
		return false, nil
	}
	if f.Kind() != cue.BoolKind {
		return false, invalidType(path, "bool")
	}
	if err := f.Decode(dst); err != nil {
		return false, errors.Newf("invalid value for %s: %v", path, err)
	}
	return true, nil
}

func lookupInt(v cue.Value, path string, dst *int) (bool, error) {
	f := field(v, path)
	if !f.Exists() {
		return false, nil
	}
	if f.Kind() != cue.IntKind {
		return false, invalidType(path, "int")
	}
	if err := f.Decode(dst); err != nil {
		return false, errors.Newf("invalid value for %s: %v", path, err)
	}
	if *dst < 0 {
		return false, errors.Newf("invalid value for %s: must be >= 0", path)
	}
	return true, nil
}

func lookupStringList(v cue.Value, path string, dst *[]string) (bool, error) {
	f := field(v, path)
	if !f.Exists() {
		return false, nil
	}
	if f.Kind() != cue.ListKind {
		return false, invalidType(path, "list of strings")
	}
	out := []string{}
	if err := f.Decode(&out); err != nil {
		return false, errors.Newf("invalid value for %s: %v", path, err)
	}
	*dst = out
	return true, nil
}

func lookupStringMap(v cue.Value, path string, dst *map[string]string) (bool, error) {
	f := field(v, path)
	if !f.Exists() {
		return false, nil
	}
	if f.Kind() != cue.StructKind {
		return false, invalidType(path, "struct of strings")
	}
	out := map[string]string{}
	if err := f.Decode(&out); err != nil {
		return false, errors.Newf("invalid value for %s: %v", path, err)
	}
	*dst = out
	return true, nil
}
