package util

import (
	"errors"
	"strings"
)

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators and rejects traversal segments.
// A ".." inside a segment (as in "report..final.pdf") is ordinary text and
// is kept.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	for _, segment := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if segment == ".." {
			return "", errInvalidFileName
		}
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errInvalidFileName
	}
	return s, nil
}
