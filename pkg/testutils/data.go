package testutils

import (
	"github.com/brianvoe/gofakeit/v6"
	"github.com/lexalign/concordance/pkg/models"
)

// ContractEN and ContractDE are parallel paragraphs with one date and one
// amount that do not match.
var ContractEN = []models.Paragraph{
	{Index: 1, Text: "This Agreement enters into force on 1 March 2021."},
	{Index: 2, Text: "The Contractor shall pay a fee of EUR 15 000 within 30 days."},
	{Index: 3, Text: "Disputes shall be settled in accordance with Article 12 of Regulation (EU) No 1215/2012."},
}

var ContractDE = []models.Paragraph{
	{Index: 1, Text: "Diese Vereinbarung tritt am 1. Mai 2021 in Kraft."},
	{Index: 2, Text: "Der Auftragnehmer zahlt innerhalb von 30 Tagen eine Gebühr von EUR 1 500."},
	{Index: 3, Text: "Streitigkeiten werden gemäß Artikel 12 der Verordnung (EU) Nr. 1215/2012 beigelegt."},
}

// DatesReply is a v2 analysis reply as a deployment returns it.
const DatesReply = "```json\n" + `{"differences": [{"entitytype": "dates",` +
	` "entityvaluelang1": "1 March 2021", "originaltextlang1": "1 March 2021",` +
	` "entityvaluelang2": "1 Mai 2021", "originaltextlang2": "1. Mai 2021",` +
	` "explanation": "The month differs."}]}` + "\n```<|eom_id|>"

// RandomParagraphs returns n numbered paragraphs of fake text.
func RandomParagraphs(n int) []models.Paragraph {
	out := make([]models.Paragraph, n)
	for i := range out {
		out[i] = models.Paragraph{Index: i + 1, Text: gofakeit.Paragraph(1, 3, 12, " ")}
	}
	return out
}
