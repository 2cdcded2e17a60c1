// Package stacktrace trims runtime stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" locations found in a stack
// produced by runtime/debug.Stack, in call order (innermost first).
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)
		_, rel, ok := strings.Cut(line, "/internal/")
		if !ok {
			continue
		}
		loc, _, _ := strings.Cut(rel, " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}
		paths = append(paths, "internal/"+loc)
	}
	return paths
}

// Describe renders a stack for logging: the internal frames when present,
// otherwise the full stack text.
func Describe(stack []byte) any {
	if paths := InternalPaths(stack); len(paths) > 0 {
		return paths
	}
	return string(stack)
}
