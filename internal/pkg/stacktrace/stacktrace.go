// Package stacktrace trims runtime stacks down to this module's frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<file>.go:<line>" for every frame of a
// debug.Stack dump that lives under an internal/ directory, innermost first.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/") {
			continue
		}
		// "/src/internal/app/x.go:12 +0x1d"
		loc, _, _ := strings.Cut(line, " ")
		_, rel, ok := strings.Cut(loc, marker)
		if !ok || !strings.Contains(rel, ".go:") {
			continue
		}
		paths = append(paths, "internal/"+rel)
	}
	return paths
}
