package graph

import "strings"

// Fact is one structured policy fact inside a profile category.
type Fact struct {
	Head     string `json:"head"`
	Relation string `json:"relation"`
	Tail     string `json:"tail"`
}

// CategoryMap groups a policy's facts into the five fixed categories.
// All five keys are always present, empty slices included, so "policy found
// but nothing structured" is distinguishable from "policy not in graph".
type CategoryMap map[Category][]Fact

// NewCategoryMap returns a CategoryMap with all five categories initialized
// to empty lists.
func NewCategoryMap() CategoryMap {
	m := make(CategoryMap, len(Categories))
	for _, c := range Categories {
		m[c] = []Fact{}
	}
	return m
}

// Profiles scans every edge once and groups mapped relations into per-source
// category maps. Edges with unmapped relations contribute nothing.
func Profiles(g *Graph) map[string]CategoryMap {
	profiles := make(map[string]CategoryMap)

	for _, e := range g.Edges() {
		upper := strings.ToUpper(e.Relation)
		cat, ok := relationCategories[upper]
		if !ok {
			continue
		}

		p, ok := profiles[e.Source]
		if !ok {
			p = NewCategoryMap()
			profiles[e.Source] = p
		}

		p[cat] = append(p[cat], Fact{Head: e.Head, Relation: upper, Tail: e.Tail})
	}

	// Sources whose every relation was unmapped still get an empty profile:
	// the policy exists in the graph even if none of it structured.
	for _, src := range g.Sources() {
		if _, ok := profiles[src]; !ok {
			profiles[src] = NewCategoryMap()
		}
	}

	return profiles
}

// ProfileFor returns the category map for one document, or ok=false when the
// document contributed no edges at all.
func ProfileFor(g *Graph, doc string) (CategoryMap, bool) {
	if !g.HasSource(doc) {
		return nil, false
	}
	if p, ok := Profiles(g)[doc]; ok {
		return p, true
	}
	return NewCategoryMap(), true
}
