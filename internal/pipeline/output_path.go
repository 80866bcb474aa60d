package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is the time format embedded in output names.
const TimestampLayout = "20060102_150405"

// DefaultOutputExt is used when a stage name has no extension.
const DefaultOutputExt = ".ipynb"

// OutputName returns "<stem>_<YYYYMMDD_HHMMSS><ext>" for a stage name.
func OutputName(name string, t time.Time) string {
	stem, ext := splitExt(name)
	return stem + "_" + t.Format(TimestampLayout) + ext
}

// OutputPath joins dir and OutputName.
func OutputPath(dir, name string, t time.Time) string {
	return filepath.Join(dir, OutputName(name, t))
}

// uniqueOutputPath returns OutputPath, or the first "_N" suffixed variant
// that does not exist yet.
func uniqueOutputPath(dir, name string, t time.Time) string {
	p := OutputPath(dir, name, t)
	if !exists(p) {
		return p
	}
	stem, ext := splitExt(OutputName(name, t))
	for i := 1; ; i++ {
		c := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !exists(c) {
			return c
		}
	}
}

func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" || stem == "" {
		return name, DefaultOutputExt
	}
	return stem, ext
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
