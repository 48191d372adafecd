// Package explain turns structured results into LLM prompts for
// human-readable narrative output. Pure presentation: nothing here feeds
// back into the graph or the matching logic.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helioscover/helios/graph"
	"github.com/helioscover/helios/llm"
	"github.com/helioscover/helios/risk"
)

const policyPrompt = `You are analyzing ONE insurance policy.

Use ONLY the facts below:

%s

Write the explanation with this format:

POLICY OVERVIEW
Short summary of what this policy mainly focuses on.

COVERAGES
Bullet points summarizing what types of risks are covered.

EXCLUSIONS
Bullet points summarizing what is excluded (if anything appears).

LIMITS
Bullet points summarizing limits / sums insured if mentioned.

CONDITIONS
Bullet points explaining important requirements or obligations.

DEFINITIONS
Explain only definitions that matter (if present).

NOTES
If anything is unclear, say: "not specified in the provided text".

Do NOT invent details.`

const riskProfilePrompt = `You are an insurance assistant.

Here is a detected business risk profile:

%s

Write a clear explanation with these sections:

BUSINESS RISKS
Explain what risks were detected and why they matter.

MANDATORY COVERAGE
Explain why each required coverage is important in practical terms.

OPTIONAL COVERAGE
Explain when optional covers are helpful.

NOTES
If something is empty, tell the user that it's not detected instead of inventing.

Use simple language. Do NOT add new risks. Base everything ONLY on the JSON.`

const comparisonPrompt = `You are an insurance assistant.

POLICY NAME:
%s

RISK ANALYSIS:
%s

POLICY COVERAGE COMPARISON:
%s

Explain clearly:

SUMMARY
What kind of business risks this user has.

MANDATORY COVERAGE
Say which requirements are already covered and which are missing.
Explain why missing ones matter, without fearmongering.

OPTIONAL COVERAGE
Explain optional protections in practical terms.

FINAL VERDICT
Is this policy adequate, partially adequate, or insufficient?

Important rules:
- Do NOT invent new risks
- Base everything ONLY on the JSON
- Use clear bullet points`

// Explainer generates narrative explanations through an LLM provider.
type Explainer struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
}

// NewExplainer creates an explainer on top of an LLM provider.
func NewExplainer(provider llm.Provider, model string, temperature float64, maxTokens int) *Explainer {
	return &Explainer{
		provider:    provider,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// FormatProfile renders a policy's category map as the fact sheet fed into
// the explanation prompt: one block per category, facts as arrow lines.
func FormatProfile(policy string, profile graph.CategoryMap) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s ===\n", policy)

	for _, cat := range graph.Categories {
		fmt.Fprintf(&sb, "\n[%s]\n", cat)
		facts := profile[cat]
		if len(facts) == 0 {
			sb.WriteString("- None found\n")
			continue
		}
		for _, f := range facts {
			fmt.Fprintf(&sb, "- %s → %s → %s\n", f.Head, f.Relation, f.Tail)
		}
	}

	return sb.String()
}

// Policy explains a single policy profile in plain language.
func (e *Explainer) Policy(ctx context.Context, policy string, profile graph.CategoryMap) (string, error) {
	prompt := fmt.Sprintf(policyPrompt, FormatProfile(policy, profile))
	return e.chat(ctx, prompt)
}

// RiskProfile explains a detected business risk profile.
func (e *Explainer) RiskProfile(ctx context.Context, profile risk.Profile) (string, error) {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling risk profile: %w", err)
	}
	return e.chat(ctx, fmt.Sprintf(riskProfilePrompt, data))
}

// Comparison explains how a policy measures up against a risk profile.
func (e *Explainer) Comparison(ctx context.Context, policy string, needs risk.Profile, cmp graph.Comparison) (string, error) {
	needsJSON, err := json.MarshalIndent(needs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling needs: %w", err)
	}
	cmpJSON, err := json.MarshalIndent(cmp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling comparison: %w", err)
	}
	return e.chat(ctx, fmt.Sprintf(comparisonPrompt, policy, needsJSON, cmpJSON))
}

func (e *Explainer) chat(ctx context.Context, prompt string) (string, error) {
	resp, err := e.provider.Chat(ctx, llm.ChatRequest{
		Model:       e.model,
		Messages:    llm.UserMessage(prompt),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generating explanation: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
