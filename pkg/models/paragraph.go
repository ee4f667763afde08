package models

import "strings"

// Paragraph is one numbered paragraph of a document. The JSON names match the
// document parsing service.
type Paragraph struct {
	Index int    `json:"para_number"`
	Text  string `json:"para"`
}

// LanguagePair names the languages of document A and document B.
type LanguagePair struct {
	Primary   string `json:"primLang"`
	Secondary string `json:"secLang"`
}

// Normalized returns the pair with lower-cased, trimmed language codes.
func (l LanguagePair) Normalized() LanguagePair {
	return LanguagePair{
		Primary:   strings.ToLower(strings.TrimSpace(l.Primary)),
		Secondary: strings.ToLower(strings.TrimSpace(l.Secondary)),
	}
}

// Swapped returns the pair with the two languages exchanged.
func (l LanguagePair) Swapped() LanguagePair {
	return LanguagePair{Primary: l.Secondary, Secondary: l.Primary}
}
