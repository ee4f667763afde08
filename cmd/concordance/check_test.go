package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/lexalign/concordance/pkg/concordance"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParagraphs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []models.Paragraph
		wantErr bool
	}{
		{
			name:  "json paragraphs",
			input: `[{"para_number": 3, "para": "First."}, {"para_number": 4, "para": "Second."}]`,
			want:  []models.Paragraph{{Index: 3, Text: "First."}, {Index: 4, Text: "Second."}},
		},
		{
			name:  "yaml strings",
			input: "- First.\n- Second.\n",
			want:  []models.Paragraph{{Index: 1, Text: "First."}, {Index: 2, Text: "Second."}},
		},
		{
			name:  "parsed document",
			input: "file: a.docx\npara:\n  - para_number: 1\n    para: Only.\n",
			want:  []models.Paragraph{{Index: 1, Text: "Only."}},
		},
		{
			name:    "document without paragraphs",
			input:   `{"file": "a.docx"}`,
			wantErr: true,
		},
		{
			name:    "scalar",
			input:   "42",
			wantErr: true,
		},
		{
			name:    "list of numbers",
			input:   "[1, 2]",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParagraphs([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunCheck(t *testing.T) {
	gen := &testutils.ReplyGenerator{Replies: map[models.Purpose]string{
		models.PurposeAnalyzeV2: testutils.DatesReply,
	}}
	judge := false

	var out bytes.Buffer
	err := runCheck(context.Background(), &out, gen, testutils.NewTestConfig(), concordance.CheckRequest{
		DocA:        "a.docx",
		DocB:        "b.docx",
		ParagraphsA: testutils.ContractEN,
		ParagraphsB: testutils.ContractDE,
		Judge:       &judge,
	})
	require.NoError(t, err)

	var lines []map[string]any
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, len(testutils.ContractEN)+1)
	assert.Equal(t, float64(1), lines[0]["completed"])
	assert.Contains(t, lines[len(lines)-1], "session")
	assert.Len(t, gen.Calls(), len(testutils.ContractEN))
}
