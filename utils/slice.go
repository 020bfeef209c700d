package utils

import "strings"

// UniqueStrings trims whitespace, drops empties and removes duplicates while
// preserving first-seen order. Used to normalize tag name lists.
func UniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := []string{}
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}
