package recommend

import (
	"regexp"
	"strings"
)

// wordRegex matches runs of letters, digits and underscores in any script.
var wordRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Keywords returns the distinct lowercase word tokens of text in order of first appearance.
func Keywords(text string) []string {
	tokens := wordRegex.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]bool, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}

	return keywords
}

// containsAny reports whether any keyword is a substring of name or description after lowercasing.
// Matching is by substring, so "cam" matches "camera".
func containsAny(keywords []string, name, description string) bool {
	name = strings.ToLower(name)
	description = strings.ToLower(description)
	for _, kw := range keywords {
		if strings.Contains(name, kw) || strings.Contains(description, kw) {
			return true
		}
	}
	return false
}
