package recon

import "strings"

// Level keeps the rightmost level+2 labels of every name that has at least
// that many. For level 2 "w.x.y.example.com" becomes "x.y.example.com" and
// "y.example.com" is dropped.
func Level(names Set, level int) Set {
	keep := level + 2
	out := make(Set)
	if keep <= 0 {
		return out
	}
	for n := range names {
		labels := strings.Split(n, ".")
		if len(labels) < keep {
			continue
		}
		out.Add(strings.Join(labels[len(labels)-keep:], "."))
	}
	return out
}
