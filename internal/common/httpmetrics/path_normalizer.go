package httpmetrics

import "strings"

// NormalizePath collapses record IDs so metric label cardinality stays bounded.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "/books/") && len(path) > len("/books/") {
		return "/books/{id}"
	}
	return path
}
