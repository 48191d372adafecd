// Package helios extracts structured knowledge from insurance policy
// documents via an LLM, assembles it into a relation graph, and answers
// policy summary and coverage-matching queries against it.
package helios

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/helioscover/helios/explain"
	"github.com/helioscover/helios/graph"
	"github.com/helioscover/helios/llm"
	"github.com/helioscover/helios/parser"
	"github.com/helioscover/helios/risk"
	"github.com/helioscover/helios/store"
	"github.com/helioscover/helios/triplet"
)

// Engine is the main entry point for the policy knowledge engine.
type Engine interface {
	// Rebuild re-extracts triplets from every document in the docs
	// directory, persists the resulting graph, and republishes it.
	Rebuild(ctx context.Context) (*RebuildResult, error)

	// Cached reports whether a persisted graph was loaded at startup.
	Cached() bool

	// Snapshot returns the currently published graph. Snapshots are
	// immutable; a rebuild swaps in a new one.
	Snapshot() *graph.Graph

	// Precheck classifies free text into a business risk profile.
	Precheck(ctx context.Context, text string) (risk.Profile, error)

	// Policies lists the documents known to the current graph.
	Policies() []string

	// Summarize projects one policy's facts into the five categories.
	// Returns ok=false when the policy is not in the graph.
	Summarize(policy string) (graph.CategoryMap, bool)

	// Summaries projects every known policy.
	Summaries() map[string]graph.CategoryMap

	// Compare matches a policy's covered items against a risk profile.
	Compare(policy string, needs risk.Profile) (graph.Comparison, error)

	// ExplainPolicy generates a narrative summary of one policy.
	ExplainPolicy(ctx context.Context, policy string) (string, error)

	// ExplainRiskProfile generates a narrative for a risk profile.
	ExplainRiskProfile(ctx context.Context, profile risk.Profile) (string, error)

	// ExplainComparison generates a narrative verdict for a comparison.
	ExplainComparison(ctx context.Context, policy string, needs risk.Profile, cmp graph.Comparison) (string, error)

	// ExportTriplets writes the cached triplet map as JSON.
	ExportTriplets(ctx context.Context, w io.Writer) error

	// Close cleanly shuts down the engine.
	Close() error
}

// RebuildResult reports what a graph rebuild produced.
type RebuildResult struct {
	Documents int      `json:"documents"`
	Triplets  int      `json:"triplets"`
	Edges     int      `json:"edges"`
	Skipped   []string `json:"skipped,omitempty"`
}

type engine struct {
	cfg        Config
	store      *store.Store
	parsers    *parser.Registry
	extractor  *triplet.Extractor
	classifier *risk.Classifier
	explainer  *explain.Explainer

	current   atomic.Pointer[graph.Graph]
	cached    bool
	rebuildMu sync.Mutex
}

// New creates an engine from configuration, opening the graph cache and the
// configured LLM backend. If a cached graph exists it is loaded and
// published; otherwise the engine starts with an empty graph and the caller
// decides when to Rebuild.
func New(cfg Config) (Engine, error) {
	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("creating llm provider: %w", err)
	}
	return NewWithProvider(cfg, provider)
}

// NewWithProvider creates an engine with an injected LLM capability. Core
// logic never inspects which backend is behind the provider.
func NewWithProvider(cfg Config, provider llm.Provider) (Engine, error) {
	s, err := store.New(cfg.resolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening graph cache: %w", err)
	}

	e := &engine{
		cfg:        cfg,
		store:      s,
		parsers:    parser.NewRegistry(),
		extractor:  triplet.NewExtractor(provider, cfg.LLM.Model, cfg.ExtractionTemperature, cfg.ExtractionMaxTokens),
		classifier: risk.NewClassifier(provider, cfg.LLM.Model, cfg.Temperature, cfg.MaxTokens),
		explainer:  explain.NewExplainer(provider, cfg.LLM.Model, cfg.Temperature, cfg.MaxTokens),
	}
	e.current.Store(graph.New())

	ctx := context.Background()
	has, err := s.HasGraph(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	if has {
		g, err := s.LoadGraph(ctx)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("loading cached graph: %w", err)
		}
		e.current.Store(g)
		e.cached = true
		slog.Info("loaded cached knowledge graph",
			"edges", g.NumEdges(), "policies", len(g.Sources()))
	}

	return e, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}

func (e *engine) Cached() bool { return e.cached }

func (e *engine) Snapshot() *graph.Graph {
	return e.current.Load()
}

// Rebuild runs the full extraction pipeline. Unreadable documents are
// skipped with a warning; an LLM failure aborts the rebuild and leaves the
// previously published snapshot in place.
func (e *engine) Rebuild(ctx context.Context) (*RebuildResult, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	var skipped []string
	docs, err := e.parsers.ParseDir(ctx, e.cfg.DocsDir, func(path string, err error) {
		slog.Warn("skipping unreadable document", "path", path, "error", err)
		skipped = append(skipped, path)
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, e.cfg.DocsDir)
	}

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	triplets := make(map[string][]graph.Triple, len(docs))
	charCounts := make(map[string]int, len(docs))
	total := 0

	for _, name := range names {
		text := docs[name]
		slog.Info("extracting triplets", "document", name, "chars", len(text))

		ts, err := e.extractor.Extract(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", name, err)
		}

		triplets[name] = ts
		charCounts[name] = len(text)
		total += len(ts)
	}

	g := graph.Build(triplets)

	if err := e.store.SaveGraph(ctx, triplets, charCounts); err != nil {
		return nil, fmt.Errorf("persisting graph: %w", err)
	}

	// Publish atomically: in-flight readers keep their old snapshot.
	e.current.Store(g)
	e.cached = true

	slog.Info("rebuild complete",
		"documents", len(docs), "triplets", total, "edges", g.NumEdges())

	return &RebuildResult{
		Documents: len(docs),
		Triplets:  total,
		Edges:     g.NumEdges(),
		Skipped:   skipped,
	}, nil
}

func (e *engine) Precheck(ctx context.Context, text string) (risk.Profile, error) {
	return e.classifier.Precheck(ctx, text)
}

func (e *engine) Policies() []string {
	return e.Snapshot().Sources()
}

func (e *engine) Summarize(policy string) (graph.CategoryMap, bool) {
	return graph.ProfileFor(e.Snapshot(), policy)
}

func (e *engine) Summaries() map[string]graph.CategoryMap {
	return graph.Profiles(e.Snapshot())
}

func (e *engine) Compare(policy string, needs risk.Profile) (graph.Comparison, error) {
	g := e.Snapshot()
	if !g.HasSource(policy) {
		return graph.Comparison{}, fmt.Errorf("%w: %s", ErrPolicyNotFound, policy)
	}
	return graph.Compare(g, policy, needs.Mandatory, needs.Optional), nil
}

func (e *engine) ExplainPolicy(ctx context.Context, policy string) (string, error) {
	profile, ok := e.Summarize(policy)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPolicyNotFound, policy)
	}
	return e.explainer.Policy(ctx, policy, profile)
}

func (e *engine) ExplainRiskProfile(ctx context.Context, profile risk.Profile) (string, error) {
	return e.explainer.RiskProfile(ctx, profile)
}

func (e *engine) ExplainComparison(ctx context.Context, policy string, needs risk.Profile, cmp graph.Comparison) (string, error) {
	return e.explainer.Comparison(ctx, policy, needs, cmp)
}

func (e *engine) ExportTriplets(ctx context.Context, w io.Writer) error {
	return e.store.ExportTriplets(ctx, w)
}
