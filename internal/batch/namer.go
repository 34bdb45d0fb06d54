// Package batch enumerates source files, resolves collision-safe output
// paths and drives one conversion job per source.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Namer tracks output paths claimed during one batch run so two jobs can
// never target the same file, even before anything is written to disk.
// It is owned by the planner and mutated only between jobs.
type Namer struct {
	claimed map[string]struct{}
}

// NewNamer returns an empty run-scoped namer.
func NewNamer() *Namer {
	return &Namer{claimed: map[string]struct{}{}}
}

// Claim resolves a usable output path starting from the wanted one and
// records it. With force set the wanted path is claimed as-is and any
// existing file will be overwritten. Otherwise, while the candidate exists
// on disk or was claimed earlier in this run, a zero-padded sequential
// suffix is appended: out.json, out_01.json, out_02.json, ...
func (n *Namer) Claim(path string, force bool) string {
	if force {
		n.claimed[path] = struct{}{}
		return path
	}

	root, ext := splitExt(path)
	candidate := path
	for i := 1; n.taken(candidate); i++ {
		candidate = fmt.Sprintf("%s_%02d%s", root, i, ext)
	}
	n.claimed[candidate] = struct{}{}
	return candidate
}

func (n *Namer) taken(path string) bool {
	if _, ok := n.claimed[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

func splitExt(path string) (string, string) {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}
