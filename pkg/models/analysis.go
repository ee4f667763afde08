package models

// Entity categories counted in totals.
const (
	EntityMoney                          = "money"
	EntityDates                          = "dates"
	EntityCaseReference                  = "case_reference"
	EntityArticleNumber                  = "article_number"
	EntityDirectivesAndRegulationNumbers = "directives_and_regulation_numbers"
)

// EntityCategories is the closed set of categories, in display order.
var EntityCategories = []string{
	EntityMoney,
	EntityDates,
	EntityCaseReference,
	EntityArticleNumber,
	EntityDirectivesAndRegulationNumbers,
}

// EntityTotals counts differences per category. All is the sum of the others.
type EntityTotals struct {
	Money                          int `json:"money"`
	Dates                          int `json:"dates"`
	CaseReference                  int `json:"case_reference"`
	ArticleNumber                  int `json:"article_number"`
	DirectivesAndRegulationNumbers int `json:"directives_and_regulation_numbers"`
	All                            int `json:"all"`
}

// Increment adds one to the named category and to All. It reports false and
// changes nothing when the category is not part of the closed set.
func (t *EntityTotals) Increment(category string) bool {
	switch category {
	case EntityMoney:
		t.Money++
	case EntityDates:
		t.Dates++
	case EntityCaseReference:
		t.CaseReference++
	case EntityArticleNumber:
		t.ArticleNumber++
	case EntityDirectivesAndRegulationNumbers:
		t.DirectivesAndRegulationNumbers++
	default:
		return false
	}
	t.All++
	return true
}

// Add returns the element-wise sum of two totals.
func (t EntityTotals) Add(o EntityTotals) EntityTotals {
	return EntityTotals{
		Money:                          t.Money + o.Money,
		Dates:                          t.Dates + o.Dates,
		CaseReference:                  t.CaseReference + o.CaseReference,
		ArticleNumber:                  t.ArticleNumber + o.ArticleNumber,
		DirectivesAndRegulationNumbers: t.DirectivesAndRegulationNumbers + o.DirectivesAndRegulationNumbers,
		All:                            t.All + o.All,
	}
}

type ParagraphState string

const (
	ParagraphPending          ParagraphState = "pending"
	ParagraphInFlight         ParagraphState = "inFlight"
	ParagraphResolvedNoDiff   ParagraphState = "resolvedNoDiff"
	ParagraphResolvedWithDiff ParagraphState = "resolvedWithDiff"
)

// Resolved reports whether the state is terminal.
func (s ParagraphState) Resolved() bool {
	return s == ParagraphResolvedNoDiff || s == ParagraphResolvedWithDiff
}

// AnalysisResult is the outcome of comparing one paragraph pair. DocA and DocB
// are set for SchemaV1, Differences and Totals for SchemaV2. RawReply and Error
// are kept when the paragraph degraded to no differences because of a failure.
type AnalysisResult struct {
	ParagraphIndex int             `json:"paragraphIndex"`
	Schema         SchemaVersion   `json:"schema"`
	State          ParagraphState  `json:"state"`
	DocA           *DocDifferences `json:"doc1,omitempty"`
	DocB           *DocDifferences `json:"doc2,omitempty"`
	Differences    []DifferenceV2  `json:"differences,omitempty"`
	Totals         *EntityTotals   `json:"totals,omitempty"`
	OriginalInput  any             `json:"originalInput,omitempty"`
	RawReply       string          `json:"rawReply,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// HasDifferences reports whether any difference was found for either schema.
func (r *AnalysisResult) HasDifferences() bool {
	if r == nil {
		return false
	}
	if len(r.Differences) > 0 {
		return true
	}
	return (r.DocA != nil && len(r.DocA.Diff) > 0) || (r.DocB != nil && len(r.DocB.Diff) > 0)
}

// DifferenceCount returns the number of differences. For v1 results the longer
// of the two per-document lists is counted.
func (r *AnalysisResult) DifferenceCount() int {
	if r == nil {
		return 0
	}
	if r.Schema == SchemaV2 {
		return len(r.Differences)
	}
	n := 0
	if r.DocA != nil {
		n = len(r.DocA.Diff)
	}
	if r.DocB != nil && len(r.DocB.Diff) > n {
		n = len(r.DocB.Diff)
	}
	return n
}

// Unified returns the differences as tagged-union values.
func (r *AnalysisResult) Unified() []Difference {
	if r == nil {
		return nil
	}
	var out []Difference
	if r.Schema == SchemaV2 {
		for _, d := range r.Differences {
			out = append(out, NewDifferenceV2(d))
		}
		return out
	}
	for _, doc := range []*DocDifferences{r.DocA, r.DocB} {
		if doc == nil {
			continue
		}
		for _, d := range doc.Diff {
			out = append(out, NewDifferenceV1(d))
		}
	}
	return out
}
