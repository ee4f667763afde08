// Package testgen asks a deployment for synthetic test documents with
// injected discrepancies and packages them as .docx files.
package testgen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/extract"
	"github.com/lexalign/concordance/pkg/llms"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/normalize"
)

var log = internal.GetLogger()

const (
	FilenameA = "concordance_test_A.docx"
	FilenameB = "concordance_test_B.docx"
)

type Request struct {
	NumVariants int      `json:"num_variants" validate:"gte=1"`
	ExampleA    []string `json:"exampleA"     validate:"required,min=1"`
	ExampleB    []string `json:"exampleB"     validate:"required,min=1"`
}

// InjectedError is one discrepancy the model claims to have introduced.
type InjectedError struct {
	Entity      string  `json:"entity"`
	SourceSpan  *string `json:"source_span"`
	TargetSpan  *string `json:"target_span"`
	Description string  `json:"description"`
}

type ParagraphTruth struct {
	ParagraphIdx int             `json:"paragraph_idx"`
	OriginalIdx  int             `json:"original_idx"`
	Variant      int             `json:"variant"`
	Errors       []InjectedError `json:"errors"`
}

type GroundTruth struct {
	PerParagraph []ParagraphTruth    `json:"per_paragraph"`
	Errors       models.EntityTotals `json:"errors"`
}

type File struct {
	Filename string `json:"filename"`
	Base64   string `json:"base64"`
}

type Response struct {
	DocA        File        `json:"docA"`
	DocB        File        `json:"docB"`
	GroundTruth GroundTruth `json:"ground_truth"`
}

// ShapeError means the deployment answered but not with the expected object.
type ShapeError struct {
	Raw    string
	Reason string
}

func (e *ShapeError) Error() string {
	return "unexpected test generator output: " + e.Reason
}

func (e *ShapeError) Unwrap() error {
	return models.ErrUpstream
}

type Generator struct {
	gen      models.Generator
	validate *validator.Validate
}

func NewGenerator(gen models.Generator) *Generator {
	return &Generator{gen: gen, validate: validator.New()}
}

// Generate validates req, calls the test generator deployment and builds the
// two documents.
func (g *Generator) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := g.validate.Struct(req); err != nil {
		return nil, models.NewValidationError("request", err.Error())
	}
	if len(req.ExampleA) != len(req.ExampleB) {
		return nil, models.NewValidationError(
			"exampleA",
			fmt.Sprintf("example lists differ in length: %d and %d", len(req.ExampleA), len(req.ExampleB)),
		)
	}

	vars, err := llms.PromptVariables(map[string]any{
		models.VarNumVariants: strconv.Itoa(req.NumVariants),
		models.VarExampleA:    req.ExampleA,
		models.VarExampleB:    req.ExampleB,
	})
	if err != nil {
		return nil, models.NewValidationError("request", err.Error())
	}

	raw, err := g.gen.Generate(ctx, models.GenerationRequest{
		Purpose:         models.PurposeTestGenerator,
		PromptVariables: vars,
	})
	if err != nil {
		return nil, err
	}

	out, err := parseOutput(raw)
	if err != nil {
		return nil, err
	}

	docA, err := BuildDocx(out.DocumentA)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", FilenameA, err)
	}
	docB, err := BuildDocx(out.DocumentB)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", FilenameB, err)
	}
	log.Infof("generated test documents with %d and %d paragraphs", len(out.DocumentA), len(out.DocumentB))

	return &Response{
		DocA:        File{Filename: FilenameA, Base64: base64.StdEncoding.EncodeToString(docA)},
		DocB:        File{Filename: FilenameB, Base64: base64.StdEncoding.EncodeToString(docB)},
		GroundTruth: out.GroundTruth,
	}, nil
}

type output struct {
	DocumentA   []string
	DocumentB   []string
	GroundTruth GroundTruth
}

type rawOutput struct {
	DocumentA   json.RawMessage `json:"document_a"`
	DocumentB   json.RawMessage `json:"document_b"`
	GroundTruth *struct {
		PerParagraph json.RawMessage `json:"per_paragraph"`
	} `json:"ground_truth"`
}

func parseOutput(raw string) (*output, error) {
	obj, err := extract.Extract(raw)
	if err != nil {
		return nil, &ShapeError{Raw: raw, Reason: "no JSON object found"}
	}
	var ro rawOutput
	if err := obj.Decode(&ro); err != nil {
		return nil, &ShapeError{Raw: raw, Reason: "output is not an object"}
	}

	docA, err := stringList(ro.DocumentA)
	if err != nil {
		return nil, &ShapeError{Raw: raw, Reason: "document_a: " + err.Error()}
	}
	docB, err := stringList(ro.DocumentB)
	if err != nil {
		return nil, &ShapeError{Raw: raw, Reason: "document_b: " + err.Error()}
	}

	out := &output{DocumentA: docA, DocumentB: docB}
	out.GroundTruth.PerParagraph = []ParagraphTruth{}
	if ro.GroundTruth != nil && len(ro.GroundTruth.PerParagraph) > 0 && string(ro.GroundTruth.PerParagraph) != "null" {
		if err := json.Unmarshal(ro.GroundTruth.PerParagraph, &out.GroundTruth.PerParagraph); err != nil {
			return nil, &ShapeError{Raw: raw, Reason: "ground_truth.per_paragraph: " + err.Error()}
		}
	}
	out.GroundTruth.Errors = Totals(out.GroundTruth.PerParagraph)

	return out, nil
}

func stringList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("missing")
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("not a list")
	}
	out := make([]string, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("entry %d is %T, not a string", i, it)
		}
		out[i] = s
	}
	return out, nil
}

// Totals counts injected errors per category. The model's own counts are
// ignored.
func Totals(paragraphs []ParagraphTruth) models.EntityTotals {
	var entities []string
	for _, p := range paragraphs {
		for _, e := range p.Errors {
			entities = append(entities, e.Entity)
		}
	}
	return normalize.Tally(entities)
}
