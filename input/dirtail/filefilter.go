package dirtail

import (
	"fmt"

	"github.com/gobwas/glob"
)

// NewFileFilter compiles the given glob patterns into a test reporting whether a file
// name (not path) belongs to the watched log stream
//
// Names matching any pattern are excluded; schedulers and editors drop lock and
// temporary files into the log directories. A nil or empty pattern list keeps every
// file.
func NewFileFilter(ignorePatterns []string) (func(name string) bool, error) {
	if len(ignorePatterns) == 0 {
		return func(string) bool { return true }, nil
	}

	globs := make([]glob.Glob, 0, len(ignorePatterns))
	for i, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("ignoreFiles[%d]: invalid pattern '%s': %w", i, pattern, err)
		}
		globs = append(globs, g)
	}

	return func(name string) bool {
		for _, g := range globs {
			if g.Match(name) {
				return false
			}
		}
		return true
	}, nil
}
