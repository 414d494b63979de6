package directory

import (
	"strings"
	"unicode"
)

// tokenDelimiters separates tokens in names, usernames and email addresses.
const tokenDelimiters = ".-_@+"

// Tokenize splits a string into searchable tokens.
// Lowercases all tokens and drops tokens shorter than 2 characters.
func Tokenize(s string) []string {
	s = strings.ToLower(s)

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(tokenDelimiters, r) || unicode.IsSpace(r)
	})

	result := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) >= 2 {
			result = append(result, t)
		}
	}
	return result
}

// userTokens returns the deduplicated tokens of a user's username, display
// name and email addresses. The full lowercased username is always included.
func userTokens(username, name string, emails []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	add(strings.ToLower(username))
	for _, t := range Tokenize(username) {
		add(t)
	}
	for _, t := range Tokenize(name) {
		add(t)
	}
	for _, e := range emails {
		for _, t := range Tokenize(e) {
			add(t)
		}
	}
	return out
}
