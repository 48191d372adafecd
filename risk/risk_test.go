package risk

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/helioscover/helios/llm"
)

type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.response}, nil
}

func TestParseRiskMap(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    RiskMap
		wantErr bool
	}{
		{
			name: "plain JSON",
			raw:  `{"physical": ["fire"], "liability": [], "operational": [], "people": [], "industry_specific": []}`,
			want: RiskMap{
				"physical": {"fire"}, "liability": {}, "operational": {},
				"people": {}, "industry_specific": {},
			},
		},
		{
			name: "fenced with json tag",
			raw:  "```json\n{\"physical\": [\"theft\"], \"liability\": [], \"operational\": [], \"people\": [], \"industry_specific\": []}\n```",
			want: RiskMap{
				"physical": {"theft"}, "liability": {}, "operational": {},
				"people": {}, "industry_specific": {},
			},
		},
		{
			name: "fenced without tag",
			raw:  "```\n{\"physical\": [], \"liability\": [\"lawsuits\"], \"operational\": [], \"people\": [], \"industry_specific\": []}\n```",
			want: RiskMap{
				"physical": {}, "liability": {"lawsuits"}, "operational": {},
				"people": {}, "industry_specific": {},
			},
		},
		{
			name: "partial keys backfilled",
			raw:  `{"physical": ["fire in warehouse"]}`,
			want: RiskMap{
				"physical": {"fire in warehouse"}, "liability": {}, "operational": {},
				"people": {}, "industry_specific": {},
			},
		},
		{
			name:    "plain prose",
			raw:     "I could not identify any risks in this text.",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRiskMap(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRiskMap: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseRiskMap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractRiskMapFallback(t *testing.T) {
	// Prose instead of JSON must degrade to the all-empty structure, not error.
	c := NewClassifier(&fakeProvider{response: "Sorry, I can't help with that."}, "m", 0.4, 500)

	got, err := c.ExtractRiskMap(context.Background(), "some business")
	if err != nil {
		t.Fatalf("ExtractRiskMap: %v", err)
	}
	if !reflect.DeepEqual(got, EmptyRiskMap()) {
		t.Errorf("got %v, want all-empty structure", got)
	}
}

func TestExtractRiskMapTransportError(t *testing.T) {
	wantErr := errors.New("dial tcp: connection refused")
	c := NewClassifier(&fakeProvider{err: wantErr}, "m", 0, 0)

	_, err := c.ExtractRiskMap(context.Background(), "text")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped transport error", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		risks         RiskMap
		wantMandatory []string
		wantOptional  []string
	}{
		{
			name:          "fire phrase triggers property cover",
			risks:         RiskMap{"physical": {"fire in warehouse"}},
			wantMandatory: []string{"property_fire_cover"},
			wantOptional:  []string{},
		},
		{
			name: "multiple triggers across categories",
			risks: RiskMap{
				"physical":          {"theft of inventory", "natural disaster exposure"},
				"operational":       {"business interruption from supply chain"},
				"industry_specific": {"data breach of customer records"},
			},
			wantMandatory: []string{"burglary_theft_cover", "cyber_insurance", "loss_of_profit"},
			wantOptional:  []string{"catastrophe_addon"},
		},
		{
			name:          "single phrase triggers multiple rules",
			risks:         RiskMap{"physical": {"fire and theft during a natural disaster"}},
			wantMandatory: []string{"burglary_theft_cover", "property_fire_cover"},
			wantOptional:  []string{"catastrophe_addon"},
		},
		{
			name:          "case insensitive",
			risks:         RiskMap{"physical": {"FIRE HAZARD"}},
			wantMandatory: []string{"property_fire_cover"},
			wantOptional:  []string{},
		},
		{
			name:          "no matching keywords",
			risks:         RiskMap{"physical": {"meteor strike"}, "people": {"low morale"}},
			wantMandatory: []string{},
			wantOptional:  []string{},
		},
		{
			name:          "empty map",
			risks:         EmptyRiskMap(),
			wantMandatory: []string{},
			wantOptional:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mandatory, optional := Classify(tt.risks)
			if !reflect.DeepEqual(mandatory, tt.wantMandatory) {
				t.Errorf("mandatory = %v, want %v", mandatory, tt.wantMandatory)
			}
			if !reflect.DeepEqual(optional, tt.wantOptional) {
				t.Errorf("optional = %v, want %v", optional, tt.wantOptional)
			}
		})
	}
}

func TestClassifySortedAndDeduped(t *testing.T) {
	// Same keyword triggering from several phrases must not duplicate.
	risks := RiskMap{
		"physical":    {"fire in the kitchen", "electrical fire risk"},
		"operational": {"fire drills disrupt work"},
	}

	mandatory, _ := Classify(risks)
	if !reflect.DeepEqual(mandatory, []string{"property_fire_cover"}) {
		t.Errorf("mandatory = %v, want single deduped entry", mandatory)
	}
	if !sort.StringsAreSorted(mandatory) {
		t.Error("mandatory list not sorted")
	}
}

func TestPrecheck(t *testing.T) {
	c := NewClassifier(&fakeProvider{
		response: `{"physical": ["theft and fire"], "liability": [], "operational": ["business interruption"], "people": [], "industry_specific": []}`,
	}, "m", 0.4, 500)

	profile, err := c.Precheck(context.Background(), "I run a sneaker store. Theft and fire are big risks.")
	if err != nil {
		t.Fatalf("Precheck: %v", err)
	}

	wantMandatory := []string{"burglary_theft_cover", "loss_of_profit", "property_fire_cover"}
	if !reflect.DeepEqual(profile.Mandatory, wantMandatory) {
		t.Errorf("mandatory = %v, want %v", profile.Mandatory, wantMandatory)
	}
	if len(profile.Optional) != 0 {
		t.Errorf("optional = %v, want empty", profile.Optional)
	}
	if !reflect.DeepEqual(profile.Risks["physical"], []string{"theft and fire"}) {
		t.Errorf("risks.physical = %v", profile.Risks["physical"])
	}
}
