// Package accessor pairs Go getter and setter methods into properties.
package accessor

import "strings"

// Sig is the part of a method signature pairing looks at. Types are compared
// by their identity strings.
type Sig struct {
	Name    string
	Params  []string
	Results []string
}

// Pair is a property: the index of its getter and of its setter in the
// input, or -1 when the setter is absent.
type Pair struct {
	Name   string
	Getter int
	Setter int
}

// Find returns the properties formed by methods X() T and SetX(T). A getter
// without a matching setter only forms a property when readOnly is set.
// Pairs come out in getter order.
func Find(sigs []Sig, readOnly bool) []Pair {
	byName := make(map[string]int, len(sigs))
	for i, s := range sigs {
		byName[s.Name] = i
	}

	var out []Pair
	for i, s := range sigs {
		if len(s.Params) != 0 || len(s.Results) != 1 || strings.HasPrefix(s.Name, "Set") {
			continue
		}
		setter := -1
		if j, ok := byName["Set"+s.Name]; ok {
			set := sigs[j]
			if len(set.Params) == 1 && len(set.Results) == 0 && set.Params[0] == s.Results[0] {
				setter = j
			}
		}
		if setter < 0 && !readOnly {
			continue
		}
		out = append(out, Pair{Name: s.Name, Getter: i, Setter: setter})
	}
	return out
}

// Members returns the set of indices that belong to some pair.
func Members(pairs []Pair) map[int]bool {
	m := make(map[int]bool, 2*len(pairs))
	for _, p := range pairs {
		m[p.Getter] = true
		if p.Setter >= 0 {
			m[p.Setter] = true
		}
	}
	return m
}
