// Package risk classifies free-text business descriptions into risk
// categories via an LLM, then derives mandatory and optional coverage
// requirements from deterministic keyword rules.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/helioscover/helios/llm"
)

// The five risk categories form a closed set.
const (
	CategoryPhysical         = "physical"
	CategoryLiability        = "liability"
	CategoryOperational      = "operational"
	CategoryPeople           = "people"
	CategoryIndustrySpecific = "industry_specific"
)

// Categories lists all risk categories.
var Categories = []string{
	CategoryPhysical,
	CategoryLiability,
	CategoryOperational,
	CategoryPeople,
	CategoryIndustrySpecific,
}

// RiskMap holds detected risk phrases grouped by category.
type RiskMap map[string][]string

// Profile is the full risk analysis result: detected risks plus derived
// coverage requirements.
type Profile struct {
	Risks     RiskMap  `json:"risks"`
	Mandatory []string `json:"mandatory"`
	Optional  []string `json:"optional"`
}

// classificationPrompt asks for strict JSON with exactly the five category
// keys. Models do not always comply; parsing is forgiving about fenced code
// blocks and falls back to an empty structure on anything worse.
const classificationPrompt = `Identify business risks.

TEXT:
"""%s"""

Classify risks ONLY into:

physical:
- fire, theft, natural disaster, property damage, equipment damage…

liability:
- lawsuits, customer injury, product liability, third-party claims…

operational:
- business interruption, supply chain, inventory spoilage…

people:
- employee health, accidents, workers safety…

industry_specific:
- cyber/data breach, food spoilage, medical negligence, etc.

Return JSON only:

{
 "physical": [],
 "liability": [],
 "operational": [],
 "people": [],
 "industry_specific": []
}

If unknown, return empty list for that category.`

// mandatoryRules maps trigger keywords to required coverage codes.
var mandatoryRules = map[string]string{
	"fire":                  "property_fire_cover",
	"theft":                 "burglary_theft_cover",
	"business interruption": "loss_of_profit",
	"employee accident":     "workmen_compensation",
	"customer injury":       "public_liability",
	"data breach":           "cyber_insurance",
	"food spoilage":         "deterioration_of_stock",
}

// optionalSuggestions maps trigger keywords to suggested coverage codes.
var optionalSuggestions = map[string]string{
	"natural disaster":    "catastrophe_addon",
	"equipment breakdown": "machinery_breakdown",
	"inventory spoilage":  "stock_deterioration",
	"customer complaints": "professional_liability",
	"medical negligence":  "medical_malpractice",
}

// EmptyRiskMap returns a RiskMap with all five categories present and empty.
func EmptyRiskMap() RiskMap {
	m := make(RiskMap, len(Categories))
	for _, c := range Categories {
		m[c] = []string{}
	}
	return m
}

// Classifier runs risk classification against an LLM provider.
type Classifier struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
}

// NewClassifier creates a risk classifier on top of an LLM provider.
func NewClassifier(provider llm.Provider, model string, temperature float64, maxTokens int) *Classifier {
	return &Classifier{
		provider:    provider,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// ExtractRiskMap asks the LLM to bucket the text's risks into the five
// categories. Transport failures propagate; everything the model sends back,
// however malformed, degrades to the all-empty structure instead of an
// error. This is the only silent-fallback parse in the system.
func (c *Classifier) ExtractRiskMap(ctx context.Context, text string) (RiskMap, error) {
	resp, err := c.provider.Chat(ctx, llm.ChatRequest{
		Model:       c.model,
		Messages:    llm.UserMessage(fmt.Sprintf(classificationPrompt, text)),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("risk classification: %w", err)
	}

	m, err := parseRiskMap(resp.Content)
	if err != nil {
		slog.Warn("risk: unparseable classification response, falling back to empty structure",
			"error", err)
		return EmptyRiskMap(), nil
	}
	return m, nil
}

// parseRiskMap trims the response, strips an optional fenced code block
// wrapper (with optional leading "json" language tag), and decodes JSON.
// Missing categories are backfilled as empty lists.
func parseRiskMap(raw string) (RiskMap, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		raw = strings.Trim(raw, "`")
		raw = strings.TrimSpace(raw)
		if len(raw) >= 4 && strings.EqualFold(raw[:4], "json") {
			raw = strings.TrimSpace(raw[4:])
		}
	}

	var m RiskMap
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}

	for _, c := range Categories {
		if m[c] == nil {
			m[c] = []string{}
		}
	}
	return m, nil
}

// Classify derives coverage requirements from detected risk phrases. Every
// phrase across every category is lowercased and substring-tested against
// both rule tables; a phrase may trigger several rules. Results are
// deduplicated and sorted.
func Classify(risks RiskMap) (mandatory, optional []string) {
	mandatorySet := make(map[string]struct{})
	optionalSet := make(map[string]struct{})

	for _, phrases := range risks {
		for _, phrase := range phrases {
			lower := strings.ToLower(phrase)

			for keyword, cover := range mandatoryRules {
				if strings.Contains(lower, keyword) {
					mandatorySet[cover] = struct{}{}
				}
			}
			for keyword, cover := range optionalSuggestions {
				if strings.Contains(lower, keyword) {
					optionalSet[cover] = struct{}{}
				}
			}
		}
	}

	return sortedKeys(mandatorySet), sortedKeys(optionalSet)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Precheck composes extraction and classification; it is the sole entry
// point for risk analysis.
func (c *Classifier) Precheck(ctx context.Context, text string) (Profile, error) {
	risks, err := c.ExtractRiskMap(ctx, text)
	if err != nil {
		return Profile{}, err
	}

	mandatory, optional := Classify(risks)

	return Profile{
		Risks:     risks,
		Mandatory: mandatory,
		Optional:  optional,
	}, nil
}
