// Package graph holds the policy knowledge graph: a directed multigraph of
// free-text entities connected by relation-labeled, source-tagged edges, plus
// the projections queried against it (policy profiles, coverage matching).
package graph

import (
	"encoding/json"
	"sort"
)

// Triple is a (head, relation, tail) fact extracted from document text.
// The relation is kept as the raw string the extractor produced; category
// mapping happens at lookup time, not here.
type Triple struct {
	Head     string `json:"head"`
	Relation string `json:"relation"`
	Tail     string `json:"tail"`
}

// Edge is a triple bound to the document it came from.
type Edge struct {
	Head     string `json:"head"`
	Tail     string `json:"tail"`
	Relation string `json:"relation"`
	Source   string `json:"source"`
}

// Graph is a directed multigraph over free-text entity strings. Nodes are
// not normalized: two differently-worded mentions of the same concept are
// distinct nodes. Duplicate edges may coexist. A Graph is built once and
// never mutated afterwards; rebuilds produce a fresh Graph.
type Graph struct {
	edges []Edge
	nodes map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]struct{})}
}

// Build folds per-document triple lists into a single graph. Documents are
// visited in sorted-identifier order so repeated builds over the same input
// produce identical edge ordering; within a document, triple order is kept.
func Build(triplets map[string][]Triple) *Graph {
	g := New()

	docs := make([]string, 0, len(triplets))
	for d := range triplets {
		docs = append(docs, d)
	}
	sort.Strings(docs)

	for _, doc := range docs {
		for _, t := range triplets[doc] {
			g.AddEdge(Edge{Head: t.Head, Tail: t.Tail, Relation: t.Relation, Source: doc})
		}
	}

	return g
}

// AddEdge appends an edge. No dedup, no normalization.
func (g *Graph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
	g.nodes[e.Head] = struct{}{}
	g.nodes[e.Tail] = struct{}{}
}

// Edges returns the edge list in insertion order. Callers must not modify it.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NumNodes returns the number of distinct entity strings.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Sources returns the sorted set of document identifiers that contributed
// at least one edge.
func (g *Graph) Sources() []string {
	seen := make(map[string]struct{})
	for _, e := range g.edges {
		seen[e.Source] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// HasSource reports whether any edge originated from the given document.
func (g *Graph) HasSource(doc string) bool {
	for _, e := range g.edges {
		if e.Source == doc {
			return true
		}
	}
	return false
}

// graphJSON is the stable serialized form: a flat edge list.
type graphJSON struct {
	Edges []Edge `json:"edges"`
}

// MarshalJSON serializes the graph as an edge list in insertion order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Edges: g.edges})
}

// UnmarshalJSON rebuilds the graph from its edge-list form.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var gj graphJSON
	if err := json.Unmarshal(data, &gj); err != nil {
		return err
	}
	g.edges = nil
	g.nodes = make(map[string]struct{})
	for _, e := range gj.Edges {
		g.AddEdge(e)
	}
	return nil
}
