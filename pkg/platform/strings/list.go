// Package strings parses the comma-separated list settings used in config.
package strings

import "strings"

// SplitList splits s on sep, trims each item and drops blanks and repeats,
// keeping first occurrences in order. A blank s yields nil.
//
//	SplitList(" b1:9092, b2:9092,,b1:9092", ",") // ["b1:9092" "b2:9092"]
func SplitList(s, sep string) []string {
	var out []string
	seen := make(map[string]bool)
	for item := range strings.SplitSeq(s, sep) {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
