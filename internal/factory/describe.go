package factory

import (
	"strings"
	"unicode"
)

// SplitDoc splits a doc string into a short first line and a dedented long
// remainder. Leading and trailing blank lines are dropped.
func SplitDoc(doc string) (short, long string) {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "    "), "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return "", ""
	}
	short = strings.TrimSpace(lines[0])
	rest := lines[1:]

	indent := -1
	for _, l := range rest {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeftFunc(l, unicode.IsSpace))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, l := range rest {
		if indent > 0 && len(l) >= indent {
			l = l[indent:]
		}
		rest[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	long = strings.Trim(strings.Join(rest, "\n"), "\n")
	return short, long
}
