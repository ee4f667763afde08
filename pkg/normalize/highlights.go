package normalize

import "github.com/lexalign/concordance/pkg/models"

// Highlights lists the text spans to highlight in each document.
type Highlights struct {
	DocA []string `json:"docA"`
	DocB []string `json:"docB"`
}

// HighlightsFor collects highlight spans from a result of either schema,
// splitting multi-span fields and dropping duplicates while keeping order.
func HighlightsFor(r *models.AnalysisResult) Highlights {
	h := Highlights{DocA: []string{}, DocB: []string{}}
	if r == nil {
		return h
	}
	seenA, seenB := map[string]bool{}, map[string]bool{}
	add := func(dst *[]string, seen map[string]bool, spans []string) {
		for _, s := range spans {
			if !seen[s] {
				seen[s] = true
				*dst = append(*dst, s)
			}
		}
	}

	if r.Schema == models.SchemaV2 {
		for _, d := range r.Differences {
			add(&h.DocA, seenA, d.SpansA())
			add(&h.DocB, seenB, d.SpansB())
		}
		return h
	}
	if r.DocA != nil {
		for _, d := range r.DocA.Diff {
			add(&h.DocA, seenA, models.SplitSpans(d.OriginalText))
		}
	}
	if r.DocB != nil {
		for _, d := range r.DocB.Diff {
			add(&h.DocB, seenB, models.SplitSpans(d.OriginalText))
		}
	}
	return h
}
