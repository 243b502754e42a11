package schema

import (
	"sort"
	"strings"

	"github.com/larascan/larascan/rulesets"
)

// Variant is one request-body shape. When the analyzed method branches, each
// rule-set entry becomes its own variant labeled by its condition path;
// otherwise a single unlabeled variant carries the merged rules.
type Variant struct {
	Label       string
	Probability float64
	Description *Description
}

// Variants converts an analysis result into documentation variants, ordered
// by descending probability so consumers can treat the first variant as the
// primary shape.
func Variants(result *rulesets.Result) []Variant {
	if result == nil || len(result.Entries) == 0 {
		return nil
	}

	if !result.HasConditions || len(result.Entries) == 1 {
		return []Variant{{
			Probability: 1,
			Description: FromRules(result.FieldOrder(), result.Merged),
		}}
	}

	variants := make([]Variant, 0, len(result.Entries))
	for _, entry := range result.Entries {
		variants = append(variants, Variant{
			Label:       describePath(entry.Conditions),
			Probability: entry.Probability,
			Description: FromRules(entry.Rules.Fields(), entry.Rules.TokenMap()),
		})
	}

	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Probability > variants[j].Probability
	})
	return variants
}

// describePath renders a condition path as a human-readable variant label.
func describePath(conditions []rulesets.Condition) string {
	if len(conditions) == 0 {
		return "Default"
	}
	parts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		parts = append(parts, c.Describe())
	}
	return "When " + strings.Join(parts, " and ")
}
