package testgen

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatorReply = "```json\n" + `{
  "document_a": ["The fee is EUR 100 payable by 1 May 2021.", "See Article 5."],
  "document_b": ["Die Gebühr beträgt EUR 1000, zahlbar bis 2. Mai 2021.", "Siehe Artikel 5."],
  "ground_truth": {
    "per_paragraph": [
      {"paragraph_idx": 0, "original_idx": 0, "variant": 1, "errors": [
        {"entity": "money", "source_span": "EUR 100", "target_span": "EUR 1000", "description": "amount"},
        {"entity": "dates", "source_span": "1 May 2021", "target_span": "2. Mai 2021", "description": "day"}
      ]},
      {"paragraph_idx": 1, "original_idx": 1, "variant": 1, "errors": [
        {"entity": "dates", "source_span": null, "target_span": null, "description": "inserted date"}
      ]}
    ],
    "errors": {"money": 7, "dates": 7, "all": 14}
  }
}` + "\n```"

type fakeGen struct {
	reply string
	err   error
	req   models.GenerationRequest
	calls int
}

func (f *fakeGen) Generate(_ context.Context, req models.GenerationRequest) (string, error) {
	f.calls++
	f.req = req
	return f.reply, f.err
}

func validRequest() Request {
	return Request{
		NumVariants: 2,
		ExampleA:    []string{"The fee is EUR 100."},
		ExampleB:    []string{"Die Gebühr beträgt EUR 100."},
	}
}

func TestGenerate(t *testing.T) {
	gen := &fakeGen{reply: generatorReply}
	resp, err := NewGenerator(gen).Generate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, models.PurposeTestGenerator, gen.req.Purpose)
	assert.Equal(t, "2", gen.req.PromptVariables[models.VarNumVariants])
	assert.Equal(t, `["The fee is EUR 100."]`, gen.req.PromptVariables[models.VarExampleA])

	assert.Equal(t, FilenameA, resp.DocA.Filename)
	assert.Equal(t, FilenameB, resp.DocB.Filename)

	// totals come from per_paragraph, not from the model's counts
	assert.Equal(t, models.EntityTotals{Money: 1, Dates: 2, All: 3}, resp.GroundTruth.Errors)
	require.Len(t, resp.GroundTruth.PerParagraph, 2)
	assert.Nil(t, resp.GroundTruth.PerParagraph[1].Errors[0].SourceSpan)

	text := documentXML(t, resp.DocB.Base64)
	assert.Contains(t, text, "Die Gebühr beträgt EUR 1000, zahlbar bis 2. Mai 2021.")
	assert.Equal(t, 2, strings.Count(text, "<w:p>"))
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"zero variants", Request{NumVariants: 0, ExampleA: []string{"a"}, ExampleB: []string{"b"}}},
		{"no examples", Request{NumVariants: 1}},
		{"length mismatch", Request{NumVariants: 1, ExampleA: []string{"a", "b"}, ExampleB: []string{"b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGen{reply: generatorReply}
			_, err := NewGenerator(gen).Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Zero(t, gen.calls)
		})
	}
}

func TestGenerateShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "Sorry, I cannot help with that."},
		{"array", `[1, 2]`},
		{"missing document_b", `{"document_a": ["x"]}`},
		{"non-string entry", `{"document_a": ["x"], "document_b": [1]}`},
		{"bad ground truth", `{"document_a": ["x"], "document_b": ["y"], "ground_truth": {"per_paragraph": "none"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(&fakeGen{reply: tt.reply}).Generate(context.Background(), validRequest())
			var shape *ShapeError
			require.ErrorAs(t, err, &shape)
			assert.Equal(t, tt.reply, shape.Raw)
			assert.ErrorIs(t, err, models.ErrUpstream)
		})
	}
}

func TestGenerateWithoutGroundTruth(t *testing.T) {
	gen := &fakeGen{reply: `{"document_a": ["x"], "document_b": ["y"]}`}
	resp, err := NewGenerator(gen).Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Empty(t, resp.GroundTruth.PerParagraph)
	assert.Zero(t, resp.GroundTruth.Errors.All)

	b, err := json.Marshal(resp.GroundTruth)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"per_paragraph":[]`)
}

func TestGenerateUpstreamError(t *testing.T) {
	gen := &fakeGen{err: models.NewUpstreamError(500, "down", nil)}
	_, err := NewGenerator(gen).Generate(context.Background(), validRequest())
	assert.ErrorIs(t, err, models.ErrUpstream)
	var shape *ShapeError
	assert.False(t, errors.As(err, &shape))
}

func TestBuildDocxEscapes(t *testing.T) {
	b, err := BuildDocx([]string{`A & B <c> "d"`, "line one\nline two"})
	require.NoError(t, err)

	text := documentXML(t, base64.StdEncoding.EncodeToString(b))
	assert.Contains(t, text, "A &amp; B &lt;c&gt; &#34;d&#34;")
	assert.Contains(t, text, "line one</w:t><w:br/>")
}

func documentXML(t *testing.T, b64 string) string {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)

	names := map[string]bool{}
	var doc string
	for _, f := range zr.File {
		names[f.Name] = true
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			doc = string(content)
		}
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["_rels/.rels"])
	return doc
}
