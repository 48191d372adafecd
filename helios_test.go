//go:build cgo

package helios

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/helioscover/helios/graph"
	"github.com/helioscover/helios/llm"
	"github.com/helioscover/helios/risk"
)

// scriptedProvider routes canned responses by prompt kind so one fake can
// serve extraction, classification, and explanation calls.
type scriptedProvider struct {
	tripletsByDoc map[string]string // substring of document text -> response
	riskResponse  string
	explainText   string
	err           error
}

func (p *scriptedProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	prompt := req.Messages[0].Content

	switch {
	case strings.Contains(prompt, "Extract insurance knowledge"):
		for marker, response := range p.tripletsByDoc {
			if strings.Contains(prompt, marker) {
				return &llm.ChatResponse{Content: response}, nil
			}
		}
		return &llm.ChatResponse{Content: ""}, nil
	case strings.Contains(prompt, "Identify business risks"):
		return &llm.ChatResponse{Content: p.riskResponse}, nil
	default:
		return &llm.ChatResponse{Content: p.explainText}, nil
	}
}

func newTestEngine(t *testing.T, provider llm.Provider) Engine {
	t.Helper()

	docsDir := t.TempDir()
	files := map[string]string{
		"shop-policy.txt":  "SHOP-DOC The shop policy covers theft and fire damage.",
		"cyber-policy.txt": "CYBER-DOC The cyber policy covers data incidents.",
		"unparseable.pdf":  "not really a pdf",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(docsDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "helios.db")
	cfg.DocsDir = docsDir

	e, err := NewWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func defaultScripted() *scriptedProvider {
	return &scriptedProvider{
		tripletsByDoc: map[string]string{
			"SHOP-DOC":  "(Shop Policy, COVERS, theft)\n(Shop Policy, COVERS, fire damage)\n(Shop Policy, EXCLUDES, war)",
			"CYBER-DOC": "(Cyber Policy, COVERS, cyber insurance)",
		},
		riskResponse: `{"physical": ["theft and fire"], "liability": [], "operational": [], "people": [], "industry_specific": ["data breach"]}`,
		explainText:  "POLICY OVERVIEW\nA policy.",
	}
}

func TestRebuildAndSummarize(t *testing.T) {
	e := newTestEngine(t, defaultScripted())

	res, err := e.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if res.Documents != 2 {
		t.Errorf("documents = %d, want 2 (bad pdf skipped)", res.Documents)
	}
	if res.Triplets != 4 || res.Edges != 4 {
		t.Errorf("triplets/edges = %d/%d, want 4/4", res.Triplets, res.Edges)
	}
	if len(res.Skipped) != 1 {
		t.Errorf("skipped = %v, want one entry", res.Skipped)
	}

	policies := e.Policies()
	want := []string{"cyber-policy.txt", "shop-policy.txt"}
	if !reflect.DeepEqual(policies, want) {
		t.Errorf("policies = %v, want %v", policies, want)
	}

	profile, ok := e.Summarize("shop-policy.txt")
	if !ok {
		t.Fatal("shop policy missing from graph")
	}
	if len(profile[graph.CategoryCoverages]) != 2 {
		t.Errorf("coverages = %v", profile[graph.CategoryCoverages])
	}
	if len(profile[graph.CategoryExclusions]) != 1 {
		t.Errorf("exclusions = %v", profile[graph.CategoryExclusions])
	}

	if _, ok := e.Summarize("missing.pdf"); ok {
		t.Error("unknown policy must not summarize")
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	e := newTestEngine(t, defaultScripted())
	if _, err := e.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	first, _ := e.Summarize("shop-policy.txt")
	second, _ := e.Summarize("shop-policy.txt")
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated Summarize on unmodified graph differs")
	}
}

func TestPrecheckAndCompare(t *testing.T) {
	e := newTestEngine(t, defaultScripted())
	ctx := context.Background()
	if _, err := e.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}

	needs, err := e.Precheck(ctx, "I run a sneaker store. Theft and fire are big risks.")
	if err != nil {
		t.Fatalf("Precheck: %v", err)
	}
	wantMandatory := []string{"burglary_theft_cover", "cyber_insurance", "property_fire_cover"}
	if !reflect.DeepEqual(needs.Mandatory, wantMandatory) {
		t.Errorf("mandatory = %v, want %v", needs.Mandatory, wantMandatory)
	}

	// Shop policy covers "theft" literally, but the coverage codes
	// normalize to longer phrases, so nothing matches there.
	cmp, err := e.Compare("shop-policy.txt", needs)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.MandatoryCovered) != 0 {
		t.Errorf("mandatory_covered = %v, want empty", cmp.MandatoryCovered)
	}
	if !reflect.DeepEqual(cmp.MandatoryMissing, wantMandatory) {
		t.Errorf("mandatory_missing = %v", cmp.MandatoryMissing)
	}

	// Cyber policy literally contains the tail "cyber insurance".
	cmp, err = e.Compare("cyber-policy.txt", needs)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !reflect.DeepEqual(cmp.MandatoryCovered, []string{"cyber_insurance"}) {
		t.Errorf("mandatory_covered = %v, want [cyber_insurance]", cmp.MandatoryCovered)
	}
}

func TestCompareUnknownPolicy(t *testing.T) {
	e := newTestEngine(t, defaultScripted())
	if _, err := e.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := e.Compare("ghost.pdf", risk.Profile{Mandatory: []string{"x"}})
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("error = %v, want ErrPolicyNotFound", err)
	}
}

func TestRebuildFailureKeepsSnapshot(t *testing.T) {
	provider := defaultScripted()
	e := newTestEngine(t, provider)
	ctx := context.Background()

	if _, err := e.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}
	before := e.Snapshot().NumEdges()

	// Next rebuild hits a transport failure; the published snapshot and
	// the persisted cache must remain the previous complete graph.
	provider.err = errors.New("rate limited")
	if _, err := e.Rebuild(ctx); err == nil {
		t.Fatal("expected rebuild failure")
	}

	if got := e.Snapshot().NumEdges(); got != before {
		t.Errorf("snapshot changed after failed rebuild: %d -> %d", before, got)
	}
}

func TestCacheLoadedAcrossRestart(t *testing.T) {
	docsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(docsDir, "p.txt"), []byte("SHOP-DOC text"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "helios.db")
	cfg.DocsDir = docsDir

	e1, err := NewWithProvider(cfg, defaultScripted())
	if err != nil {
		t.Fatal(err)
	}
	if e1.Cached() {
		t.Error("fresh engine should not report a cached graph")
	}
	if _, err := e1.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	edges := e1.Snapshot().NumEdges()
	e1.Close()

	// Second engine must load the cache verbatim without touching the LLM.
	failing := &scriptedProvider{err: errors.New("llm must not be called")}
	e2, err := NewWithProvider(cfg, failing)
	if err != nil {
		t.Fatal(err)
	}
	defer e2.Close()

	if !e2.Cached() {
		t.Fatal("second engine should have loaded the cached graph")
	}
	if got := e2.Snapshot().NumEdges(); got != edges {
		t.Errorf("cached graph edges = %d, want %d", got, edges)
	}
}

func TestExplainPolicyUnknown(t *testing.T) {
	e := newTestEngine(t, defaultScripted())
	if _, err := e.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := e.ExplainPolicy(context.Background(), "ghost.pdf")
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("error = %v, want ErrPolicyNotFound", err)
	}
}
