package graph

import "strings"

// Category is one of the five fixed policy profile sections.
type Category string

const (
	CategoryCoverages   Category = "Coverages"
	CategoryExclusions  Category = "Exclusions"
	CategoryLimits      Category = "Limits"
	CategoryConditions  Category = "Conditions"
	CategoryDefinitions Category = "Definitions"
)

// Categories lists all profile categories in presentation order.
var Categories = []Category{
	CategoryCoverages,
	CategoryExclusions,
	CategoryLimits,
	CategoryConditions,
	CategoryDefinitions,
}

// relationCategories maps uppercased relation strings into profile
// categories. Relations outside this table never appear in any profile;
// extracted relations are noisy and unmapped ones are dropped silently.
var relationCategories = map[string]Category{
	"COVERS":     CategoryCoverages,
	"INCLUDES":   CategoryCoverages,
	"INSURED":    CategoryCoverages,
	"APPLIES_TO": CategoryCoverages,

	"EXCLUDES":      CategoryExclusions,
	"EXCLUDED_FROM": CategoryExclusions,

	"LIMIT":       CategoryLimits,
	"SUM_INSURED": CategoryLimits,

	"REQUIRES":   CategoryConditions,
	"MUST":       CategoryConditions,
	"OBLIGATION": CategoryConditions,

	"DEFINED_AS": CategoryDefinitions,
	"DEFINED_IN": CategoryDefinitions,
}

// CategoryForRelation maps a raw relation string to its profile category.
// The lookup is case-insensitive. Unknown relations return ok=false.
func CategoryForRelation(relation string) (Category, bool) {
	c, ok := relationCategories[strings.ToUpper(relation)]
	return c, ok
}

// coverageRelations are the uppercased relations whose tails count as
// covered items for coverage matching.
var coverageRelations = map[string]struct{}{
	"COVERS":     {},
	"INCLUDES":   {},
	"INSURED":    {},
	"APPLIES_TO": {},
}

// isCoverageRelation reports whether an uppercased relation marks coverage.
func isCoverageRelation(upper string) bool {
	_, ok := coverageRelations[upper]
	return ok
}
