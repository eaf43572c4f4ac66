package render

import (
	"strconv"
	"strings"
)

// num formats v in its shortest decimal form, keeping a ".0" on integral
// values so 70 renders as "70.0" and 8.15 as "8.15".
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func join(lines []string) string {
	return strings.Join(lines, "\n")
}
