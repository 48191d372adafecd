// Package triplet turns raw policy text into (head, relation, tail) facts
// by prompting an LLM and scraping its free-text response with a tolerant
// pattern match.
package triplet

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/helioscover/helios/graph"
	"github.com/helioscover/helios/llm"
)

// extractionPrompt constrains the relation vocabulary and output format.
// The model is free to emit relations outside the vocabulary; downstream
// category mapping simply drops what it does not recognize.
const extractionPrompt = `Extract insurance knowledge as triples.

Format STRICTLY:
(HEAD, RELATION, TAIL)

Relations ONLY:
COVERS, EXCLUDES, LIMIT, CONDITION, DEFINITION

Text:
%s`

// triplePattern accepts any substring shaped like (A, B, C) where A and B
// contain no commas and C contains no closing parenthesis. Everything else
// in the response is ignored; malformed lines contribute zero triples.
var triplePattern = regexp.MustCompile(`\(([^,]+),\s*([^,]+),\s*([^)]+)\)`)

// Extractor sends one extraction request per document through the LLM
// provider and parses the response.
type Extractor struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
}

// NewExtractor creates a triplet extractor on top of an LLM provider.
func NewExtractor(provider llm.Provider, model string, temperature float64, maxTokens int) *Extractor {
	return &Extractor{
		provider:    provider,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Extract prompts the LLM with the document text and parses the raw
// response into triples. Transport failures propagate to the caller: a
// failed document aborts extraction for that document, and retrying is the
// caller's business.
func (e *Extractor) Extract(ctx context.Context, text string) ([]graph.Triple, error) {
	resp, err := e.provider.Chat(ctx, llm.ChatRequest{
		Model:       e.model,
		Messages:    llm.UserMessage(fmt.Sprintf(extractionPrompt, text)),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("triplet extraction: %w", err)
	}

	return Parse(resp.Content), nil
}

// Parse scans raw LLM output for triple-shaped substrings. Captured groups
// are whitespace-trimmed; candidates with any empty component are dropped.
// No semantic validation happens here; unknown relations pass through.
func Parse(raw string) []graph.Triple {
	matches := triplePattern.FindAllStringSubmatch(raw, -1)

	triples := make([]graph.Triple, 0, len(matches))
	for _, m := range matches {
		head := strings.TrimSpace(m[1])
		relation := strings.TrimSpace(m[2])
		tail := strings.TrimSpace(m[3])
		if head == "" || relation == "" || tail == "" {
			continue
		}
		triples = append(triples, graph.Triple{Head: head, Relation: relation, Tail: tail})
	}

	return triples
}
