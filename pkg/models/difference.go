package models

import "strings"

type SchemaVersion string

const (
	SchemaV1 SchemaVersion = "v1"
	SchemaV2 SchemaVersion = "v2"
)

// ParseSchemaVersion maps the "v2" request flag onto a SchemaVersion.
func ParseSchemaVersion(v2 bool) SchemaVersion {
	if v2 {
		return SchemaV2
	}
	return SchemaV1
}

// DifferenceV1 is one entry of a per-document difference list.
type DifferenceV1 struct {
	Type         string `json:"type"`
	Description  string `json:"description"`
	OriginalText string `json:"originalText"`
}

// DocDifferences groups the v1 differences found in one language version.
type DocDifferences struct {
	Language string         `json:"language"`
	Diff     []DifferenceV1 `json:"diff"`
}

// DifferenceV2 is a paired discrepancy between the two language versions.
// OriginalTextLangA and OriginalTextLangB may hold several spans separated by "|".
type DifferenceV2 struct {
	EntityType        string        `json:"entitytype"`
	ValueLangA        string        `json:"entityvaluelang1"`
	OriginalTextLangA string        `json:"originaltextlang1"`
	ValueLangB        string        `json:"entityvaluelang2"`
	OriginalTextLangB string        `json:"originaltextlang2"`
	Explanation       string        `json:"explanation"`
	Ruling            *bool         `json:"ruling,omitempty"`
	FeedbackState     FeedbackState `json:"feedbackState,omitempty"`
}

func (d DifferenceV2) SpansA() []string {
	return SplitSpans(d.OriginalTextLangA)
}

func (d DifferenceV2) SpansB() []string {
	return SplitSpans(d.OriginalTextLangB)
}

// SplitSpans splits a "|" separated span list, trimming whitespace and quote
// characters and dropping empty entries.
func SplitSpans(s string) []string {
	parts := strings.Split(s, "|")
	spans := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "\"'“”„«»")
		p = strings.TrimSpace(p)
		if p != "" {
			spans = append(spans, p)
		}
	}
	return spans
}

// Difference is a tagged union over the two difference schemas. Exactly one of
// V1 and V2 is set, matching Version.
type Difference struct {
	Version SchemaVersion
	V1      *DifferenceV1
	V2      *DifferenceV2
}

func NewDifferenceV1(d DifferenceV1) Difference {
	return Difference{Version: SchemaV1, V1: &d}
}

func NewDifferenceV2(d DifferenceV2) Difference {
	return Difference{Version: SchemaV2, V2: &d}
}

// EntityType returns the category of the difference for either schema.
func (d Difference) EntityType() string {
	switch d.Version {
	case SchemaV1:
		if d.V1 != nil {
			return d.V1.Type
		}
	case SchemaV2:
		if d.V2 != nil {
			return d.V2.EntityType
		}
	}
	return ""
}
