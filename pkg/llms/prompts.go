package llms

import (
	"fmt"

	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/models"
)

// Prompt templates used when generating against an OpenAI-compatible API.
// Hosted deployments carry their own prompts and only receive the variables.
// Templates are rendered with sprig functions and the prompt variables as data.

const analyzeV1Prompt = `You compare two language versions of the same legal paragraph and list factual
discrepancies: money, dates, case_reference, article_number and directives_and_regulation_numbers.

Paragraph in language one:
"""
{{ .paragraphs_language_one | trim }}
"""

Paragraph in language two:
"""
{{ .paragraphs_language_two | trim }}
"""

Answer with a single JSON object keyed by the two ISO language codes. Each value maps an entity
type to a list of {"value": ..., "originaltext": ...} entries for the entities that differ.
Use {} when there are no discrepancies. Do not add any text outside the JSON.`

const analyzeV2Prompt = `You compare two language versions of the same legal paragraph and report factual
discrepancies. Only report entities of these types: money, dates, case_reference, article_number,
directives_and_regulation_numbers.

Paragraph in language one:
"""
{{ .paragraphs_language_one | trim }}
"""

Paragraph in language two:
"""
{{ .paragraphs_language_two | trim }}
"""

Answer with JSON of the form {"differences": [{"entitytype": ..., "entityvaluelang1": ...,
"originaltextlang1": ..., "entityvaluelang2": ..., "originaltextlang2": ..., "explanation": ...}]}.
When an entity occurs several times, separate the original text fragments with "|".
Use {"differences": []} when the paragraphs agree.`

const judgePrompt = `A reviewer tool flagged the following discrepancy between two language versions of a
legal paragraph:

{{ .difference }}

Decide whether this is a real factual discrepancy and not a translation or formatting artefact.
Answer with JSON only: {"evaluation": true} for a real discrepancy, {"evaluation": false} otherwise.`

const testGeneratorPrompt = `You create test material for a tool that detects factual discrepancies between two
language versions of legal documents.

Example paragraphs of document A (JSON list):
{{ .example_a }}

Example paragraphs of document B (JSON list):
{{ .example_b }}

Produce {{ .num_variants | default "1" }} variants of each paragraph pair. Introduce discrepancies of
types money, dates, case_reference, article_number or directives_and_regulation_numbers into some
of the document B paragraphs and leave others identical in meaning.

Answer with JSON only:
{"document_a": [string], "document_b": [string], "ground_truth": {"per_paragraph": [
{"paragraph_idx": int, "original_idx": int, "variant": int, "errors": [{"entity": string,
"source_span": string, "target_span": string, "description": string}]}]}}`

var promptTemplates = map[models.Purpose]string{
	models.PurposeAnalyzeV1:     analyzeV1Prompt,
	models.PurposeAnalyzeV2:     analyzeV2Prompt,
	models.PurposeJudge:         judgePrompt,
	models.PurposeTestGenerator: testGeneratorPrompt,
}

// RenderPrompt renders the prompt template for a purpose.
func RenderPrompt(purpose models.Purpose, vars map[string]string) (string, error) {
	tmpl, ok := promptTemplates[purpose]
	if !ok {
		return "", fmt.Errorf("no prompt template for %q", purpose)
	}
	if vars == nil {
		vars = map[string]string{}
	}
	return internal.ParsePrompt(tmpl, vars)
}
