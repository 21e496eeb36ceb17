package indexer

import (
	"path/filepath"
	"strings"
)

func isHiddenDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isHiddenRelPath reports whether any element of a vault relative path is
// hidden, which covers .obsidian and .trash contents.
func isHiddenRelPath(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func isMarkdownFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}
