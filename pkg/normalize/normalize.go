// Package normalize reshapes extracted model output into AnalysisResults.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lexalign/concordance/pkg/extract"
	"github.com/lexalign/concordance/pkg/models"
)

// Normalize turns an extracted object into an AnalysisResult for the given
// schema. The returned result has no paragraph index and no state; the caller
// assigns those.
func Normalize(
	obj *extract.Object,
	schema models.SchemaVersion,
	langs models.LanguagePair,
) (*models.AnalysisResult, error) {
	if obj == nil {
		return nil, fmt.Errorf("nothing to normalize")
	}
	switch schema {
	case models.SchemaV1:
		return normalizeV1(obj.Raw, langs)
	case models.SchemaV2:
		return normalizeV2(obj.Raw)
	default:
		return nil, fmt.Errorf("unknown schema version %q", schema)
	}
}

// Empty returns the neutral result for a paragraph without differences.
func Empty(schema models.SchemaVersion, langs models.LanguagePair) *models.AnalysisResult {
	if schema == models.SchemaV1 {
		return &models.AnalysisResult{
			Schema: models.SchemaV1,
			DocA:   &models.DocDifferences{Language: langs.Primary, Diff: []models.DifferenceV1{}},
			DocB:   &models.DocDifferences{Language: langs.Secondary, Diff: []models.DifferenceV1{}},
		}
	}
	return &models.AnalysisResult{
		Schema:      models.SchemaV2,
		Differences: []models.DifferenceV2{},
		Totals:      &models.EntityTotals{},
	}
}

func normalizeV1(raw json.RawMessage, langs models.LanguagePair) (*models.AnalysisResult, error) {
	members, err := decodeOrdered(raw)
	if err != nil {
		return nil, fmt.Errorf("v1 differences: %w", err)
	}

	result := Empty(models.SchemaV1, langs)
	if len(members) == 0 {
		return result, nil
	}

	a, b := pickLanguages(members, langs)
	for i, doc := range []*models.DocDifferences{result.DocA, result.DocB} {
		idx := a
		if i == 1 {
			idx = b
		}
		if idx < 0 {
			continue
		}
		if doc.Language == "" {
			doc.Language = members[idx].Key
		}
		diffs, err := flattenBuckets(members[idx].Value)
		if err != nil {
			return nil, fmt.Errorf("v1 differences for %q: %w", members[idx].Key, err)
		}
		doc.Diff = append(doc.Diff, diffs...)
	}
	return result, nil
}

// pickLanguages finds the members holding document A and document B. Language
// codes match case-insensitively. When only one language matches, the other
// document takes the first remaining member; when none match, the first and
// second members are used in document order. -1 means no member.
func pickLanguages(members []member, langs models.LanguagePair) (int, int) {
	find := func(lang string) int {
		if lang == "" {
			return -1
		}
		for i, m := range members {
			if strings.EqualFold(strings.TrimSpace(m.Key), lang) {
				return i
			}
		}
		return -1
	}
	other := func(taken int) int {
		for i := range members {
			if i != taken {
				return i
			}
		}
		return -1
	}

	a, b := find(langs.Primary), find(langs.Secondary)
	switch {
	case a >= 0 && a == b:
		b = other(a)
	case a >= 0 && b < 0:
		b = other(a)
	case a < 0 && b >= 0:
		a = other(b)
	case a < 0 && b < 0:
		a, b = 0, other(0)
	}
	return a, b
}

func flattenBuckets(raw json.RawMessage) ([]models.DifferenceV1, error) {
	buckets, err := decodeOrdered(raw)
	if err != nil {
		return nil, err
	}
	diffs := []models.DifferenceV1{}
	for _, bucket := range buckets {
		var entries []any
		if err := json.Unmarshal(bucket.Value, &entries); err != nil {
			// a bucket holding a single entry rather than a list
			var single any
			if err := json.Unmarshal(bucket.Value, &single); err != nil {
				return nil, err
			}
			entries = []any{single}
		}
		for _, e := range entries {
			d, ok := v1Entry(bucket.Key, e)
			if ok {
				diffs = append(diffs, d)
			}
		}
	}
	return diffs, nil
}

func v1Entry(entityType string, e any) (models.DifferenceV1, bool) {
	var value, original string
	switch t := e.(type) {
	case map[string]any:
		value = stringify(firstOf(t, "value", "entityvalue", "description"))
		original = stringify(firstOf(t, "originaltext", "originalText", "original_text"))
	default:
		value = stringify(t)
	}
	if strings.TrimSpace(value) == "" {
		return models.DifferenceV1{}, false
	}
	return models.DifferenceV1{
		Type:         entityType,
		Description:  value,
		OriginalText: original,
	}, true
}

func normalizeV2(raw json.RawMessage) (*models.AnalysisResult, error) {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapper map[string]any
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("v2 differences: %w", err)
		}
		list, ok := wrapper["differences"]
		if !ok || list == nil {
			list = []any{}
		}
		items, ok = list.([]any)
		if !ok {
			return nil, fmt.Errorf("v2 differences: expected a list, got %T", list)
		}
	}

	result := Empty(models.SchemaV2, models.LanguagePair{})
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		result.Differences = append(result.Differences, v2Entry(m))
	}
	totals := RecomputeTotals(result.Differences)
	result.Totals = &totals
	return result, nil
}

func v2Entry(m map[string]any) models.DifferenceV2 {
	d := models.DifferenceV2{
		EntityType:        stringify(firstOf(m, "entitytype", "entityType", "entity_type")),
		ValueLangA:        stringify(firstOf(m, "entityvaluelang1", "valueLangA", "value_lang_a")),
		OriginalTextLangA: stringify(firstOf(m, "originaltextlang1", "originalTextLangA", "original_text_lang_a")),
		ValueLangB:        stringify(firstOf(m, "entityvaluelang2", "valueLangB", "value_lang_b")),
		OriginalTextLangB: stringify(firstOf(m, "originaltextlang2", "originalTextLangB", "original_text_lang_b")),
		Explanation:       stringify(firstOf(m, "explanation")),
		FeedbackState:     models.FeedbackNew,
	}
	if r, ok := m["ruling"].(bool); ok {
		d.Ruling = &r
	}
	if s, ok := m["feedbackState"].(string); ok && s != "" {
		d.FeedbackState = models.FeedbackState(s)
	}
	return d
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
