package graph

import (
	"sort"
	"strings"
)

// Comparison partitions a risk profile's coverage requirements by presence
// in a policy's covered-items set.
type Comparison struct {
	Available        []string `json:"available"`
	MandatoryCovered []string `json:"mandatory_covered"`
	MandatoryMissing []string `json:"mandatory_missing"`
	OptionalCovered  []string `json:"optional_covered"`
	OptionalMissing  []string `json:"optional_missing"`
}

// CoveredItems collects the normalized tails of every coverage-relation edge
// sourced from doc: lowercased, whitespace-trimmed, deduplicated.
func CoveredItems(g *Graph, doc string) map[string]struct{} {
	covers := make(map[string]struct{})

	for _, e := range g.Edges() {
		if e.Source != doc {
			continue
		}
		if isCoverageRelation(strings.ToUpper(e.Relation)) {
			covers[strings.TrimSpace(strings.ToLower(e.Tail))] = struct{}{}
		}
	}

	return covers
}

// Compare tests each mandatory and optional coverage code against the
// policy's covered items. A code matches only if the graph literally
// contains its underscore-to-space form as a covered tail (case-insensitive,
// trimmed). The contract is exact-string, no fuzzy or semantic matching.
func Compare(g *Graph, doc string, mandatory, optional []string) Comparison {
	available := CoveredItems(g, doc)

	cmp := Comparison{
		MandatoryCovered: []string{},
		MandatoryMissing: []string{},
		OptionalCovered:  []string{},
		OptionalMissing:  []string{},
	}

	for _, item := range mandatory {
		if _, ok := available[strings.ReplaceAll(item, "_", " ")]; ok {
			cmp.MandatoryCovered = append(cmp.MandatoryCovered, item)
		} else {
			cmp.MandatoryMissing = append(cmp.MandatoryMissing, item)
		}
	}

	for _, item := range optional {
		if _, ok := available[strings.ReplaceAll(item, "_", " ")]; ok {
			cmp.OptionalCovered = append(cmp.OptionalCovered, item)
		} else {
			cmp.OptionalMissing = append(cmp.OptionalMissing, item)
		}
	}

	cmp.Available = make([]string, 0, len(available))
	for item := range available {
		cmp.Available = append(cmp.Available, item)
	}
	sort.Strings(cmp.Available)

	return cmp
}
