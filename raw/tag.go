package raw

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTag splits a Go struct tag into its key:"value" pairs, in order.
func ParseTag(tag string) ([]Tag, error) {
	var out []Tag
	s := strings.TrimSpace(tag)
	for s != "" {
		i := strings.Index(s, ":\"")
		if i <= 0 || strings.ContainsAny(s[:i], " \"") {
			return nil, fmt.Errorf("malformed struct tag %q", tag)
		}
		key := s[:i]
		s = s[i+1:]

		end := 1
		for end < len(s) && s[end] != '"' {
			if s[end] == '\\' {
				end++
			}
			end++
		}
		if end >= len(s) {
			return nil, fmt.Errorf("malformed struct tag %q", tag)
		}
		value, err := strconv.Unquote(s[:end+1])
		if err != nil {
			return nil, fmt.Errorf("malformed struct tag %q: %w", tag, err)
		}
		out = append(out, Tag{Key: key, Value: value})
		s = strings.TrimSpace(s[end+1:])
	}
	return out, nil
}
