package utils

import (
	"strings"
	"unicode"
)

// ParseNames flattens widget name lists that may contain comma or space
// separated values into a de-duplicated slice, preserving first occurrence order
func ParseNames(values []string) []string {
	names := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, v := range values {
		fields := strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})

		for _, f := range fields {
			if _, ok := seen[f]; ok {
				continue
			}

			seen[f] = struct{}{}
			names = append(names, f)
		}
	}

	return names
}
