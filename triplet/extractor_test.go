package triplet

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/helioscover/helios/graph"
	"github.com/helioscover/helios/llm"
)

// fakeProvider returns a canned response or error without any network.
type fakeProvider struct {
	response string
	err      error
	lastReq  llm.ChatRequest
}

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.response}, nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []graph.Triple
	}{
		{
			name: "clean output",
			raw:  "(Policy, COVERS, Theft)\n(Policy, EXCLUDES, War)",
			want: []graph.Triple{
				{Head: "Policy", Relation: "COVERS", Tail: "Theft"},
				{Head: "Policy", Relation: "EXCLUDES", Tail: "War"},
			},
		},
		{
			name: "triples embedded in prose",
			raw:  "Here are the facts:\n1. (Shop Policy, COVERS, fire damage) as stated.\nAlso (Shop Policy, LIMIT, 50000 EUR annually).",
			want: []graph.Triple{
				{Head: "Shop Policy", Relation: "COVERS", Tail: "fire damage"},
				{Head: "Shop Policy", Relation: "LIMIT", Tail: "50000 EUR annually"},
			},
		},
		{
			name: "whitespace trimmed",
			raw:  "(  Policy ,  COVERS ,  Theft  )",
			want: []graph.Triple{{Head: "Policy", Relation: "COVERS", Tail: "Theft"}},
		},
		{
			name: "unknown relation accepted",
			raw:  "(Policy, GUARANTEES, payout)",
			want: []graph.Triple{{Head: "Policy", Relation: "GUARANTEES", Tail: "payout"}},
		},
		{
			name: "no triple shapes",
			raw:  "I'm sorry, I cannot extract anything from this text.",
			want: []graph.Triple{},
		},
		{
			name: "two-element tuple ignored",
			raw:  "(Policy, COVERS)",
			want: []graph.Triple{},
		},
		{
			name: "empty input",
			raw:  "",
			want: []graph.Triple{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseNoEmptyComponents(t *testing.T) {
	// Every returned triple must have non-empty trimmed components.
	raws := []string{
		"(Policy, COVERS, Theft)",
		"( , COVERS, Theft)",
		"(Policy,  , )",
		"mixed (A, B, C) and junk ( ,  , )",
	}
	for _, raw := range raws {
		for _, tr := range Parse(raw) {
			if tr.Head == "" || tr.Relation == "" || tr.Tail == "" {
				t.Errorf("Parse(%q) returned triple with empty component: %+v", raw, tr)
			}
		}
	}
}

func TestExtract(t *testing.T) {
	fake := &fakeProvider{response: "(Policy, COVERS, Theft)"}
	e := NewExtractor(fake, "test-model", 0.2, 2048)

	got, err := e.Extract(context.Background(), "some policy text")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []graph.Triple{{Head: "Policy", Relation: "COVERS", Tail: "Theft"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}

	if fake.lastReq.Model != "test-model" {
		t.Errorf("model = %q", fake.lastReq.Model)
	}
	if len(fake.lastReq.Messages) != 1 || !strings.Contains(fake.lastReq.Messages[0].Content, "some policy text") {
		t.Error("document text missing from prompt")
	}
	if !strings.Contains(fake.lastReq.Messages[0].Content, "(HEAD, RELATION, TAIL)") {
		t.Error("format instruction missing from prompt")
	}
}

func TestExtractPropagatesTransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	e := NewExtractor(&fakeProvider{err: wantErr}, "m", 0, 0)

	_, err := e.Extract(context.Background(), "text")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}
