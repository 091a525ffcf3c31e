package helpers

import (
	"errors"
	"strings"
)

// GetSplitPart returns the index-th part of target split on separate
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index < 0 || index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// SplitList splits target on separate, trimming each part and dropping
// blank ones
func SplitList(target string, separate string) []string {
	var out []string
	for _, part := range strings.Split(target, separate) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
