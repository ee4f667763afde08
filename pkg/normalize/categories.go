package normalize

import (
	"strings"

	"github.com/lexalign/concordance/pkg/models"
)

var categoryAliases = map[string]string{
	"money":                             models.EntityMoney,
	"amount":                            models.EntityMoney,
	"amounts":                           models.EntityMoney,
	"monetary_amount":                   models.EntityMoney,
	"monetary_amounts":                  models.EntityMoney,
	"currency":                          models.EntityMoney,
	"date":                              models.EntityDates,
	"dates":                             models.EntityDates,
	"case_reference":                    models.EntityCaseReference,
	"case_references":                   models.EntityCaseReference,
	"case_number":                       models.EntityCaseReference,
	"case_numbers":                      models.EntityCaseReference,
	"article":                           models.EntityArticleNumber,
	"articles":                          models.EntityArticleNumber,
	"article_number":                    models.EntityArticleNumber,
	"article_numbers":                   models.EntityArticleNumber,
	"directive":                         models.EntityDirectivesAndRegulationNumbers,
	"directives":                        models.EntityDirectivesAndRegulationNumbers,
	"regulation":                        models.EntityDirectivesAndRegulationNumbers,
	"regulations":                       models.EntityDirectivesAndRegulationNumbers,
	"directives_and_regulations":        models.EntityDirectivesAndRegulationNumbers,
	"directives_and_regulation_numbers": models.EntityDirectivesAndRegulationNumbers,
}

// CanonicalCategory maps an entity type emitted by a model onto the closed
// category set. The second result is false for unrecognized categories.
func CanonicalCategory(entityType string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(entityType))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	c, ok := categoryAliases[key]
	return c, ok
}

// Tally counts entity types against the closed category set. Unrecognized
// types are ignored.
func Tally(entityTypes []string) models.EntityTotals {
	var totals models.EntityTotals
	for _, et := range entityTypes {
		if c, ok := CanonicalCategory(et); ok {
			totals.Increment(c)
		}
	}
	return totals
}

// RecomputeTotals derives totals from the differences themselves, ignoring any
// totals the model may have reported. It is idempotent.
func RecomputeTotals(diffs []models.DifferenceV2) models.EntityTotals {
	types := make([]string, len(diffs))
	for i, d := range diffs {
		types[i] = d.EntityType
	}
	return Tally(types)
}
