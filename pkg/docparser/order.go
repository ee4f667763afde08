package docparser

import "github.com/lexalign/concordance/pkg/models"

// swapPairs lists (primary, secondary) pairs whose documents are exchanged so
// that the reference language ends up as document A. An empty secondary
// matches any language.
var swapPairs = []models.LanguagePair{
	{Primary: "lv"},
	{Primary: "de", Secondary: "en"},
}

// OrderLanguages returns the pair in comparison order and whether the two
// documents have to be swapped to match it.
func OrderLanguages(langs models.LanguagePair) (models.LanguagePair, bool) {
	n := langs.Normalized()
	for _, p := range swapPairs {
		if n.Primary == p.Primary && (p.Secondary == "" || n.Secondary == p.Secondary) {
			return langs.Swapped(), true
		}
	}
	return langs, false
}

// OrderDocuments applies OrderLanguages to a pair of parsed documents.
func OrderDocuments(
	a, b models.ParsedDocument,
	langs models.LanguagePair,
) (models.ParsedDocument, models.ParsedDocument, models.LanguagePair) {
	ordered, swapped := OrderLanguages(langs)
	if swapped {
		return b, a, ordered
	}
	return a, b, ordered
}
