// Package recon merges enumerator output into a candidate set and derives
// level groupings from it.
package recon

import (
	"bufio"
	"slices"
	"strings"
)

// Set is a set of candidate subdomain names.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s Set) Add(name string) { s[name] = struct{}{} }

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Merge adds every name of other to s.
func (s Set) Merge(other Set) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Sorted returns the names in lexicographic order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Matching returns the trimmed, non-empty lines of text that mention domain.
func Matching(text, domain string) Set {
	found := make(Set)
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.Contains(line, domain) {
			continue
		}
		found.Add(line)
	}
	return found
}

// FilterSuffix returns the members of s that end with domain. Lines that only
// mention the domain somewhere in the middle are dropped.
func (s Set) FilterSuffix(domain string) Set {
	out := make(Set, len(s))
	for n := range s {
		if strings.HasSuffix(n, domain) {
			out.Add(n)
		}
	}
	return out
}
