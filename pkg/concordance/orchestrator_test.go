package concordance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datesReply = "Here are the differences:\n```json\n" + `{"differences":[{"entitytype":"dates",` +
	`"entityvaluelang1":"1 March 2020","originaltextlang1":"on 1 March 2020",` +
	`"entityvaluelang2":"2 March 2020","originaltextlang2":"am 2. März 2020",` +
	`"explanation":"the day differs"}]}` + "\n```<|eom_id|>"

type recordingPublisher struct {
	progress   []models.ProgressEvent
	sessions   []models.ConcordanceSession
	sessionErr error
}

func (p *recordingPublisher) PublishProgress(event models.ProgressEvent) error {
	p.progress = append(p.progress, event)
	return nil
}

func (p *recordingPublisher) PublishSession(session models.ConcordanceSession) error {
	p.sessions = append(p.sessions, session)
	return p.sessionErr
}

type call struct {
	purpose models.Purpose
	vars    map[string]string
}

// scripted answers generation calls with reply, recording every call.
type scripted struct {
	calls []call
	reply func(n int, req models.GenerationRequest) (string, error)
}

func (s *scripted) Generate(_ context.Context, req models.GenerationRequest) (string, error) {
	s.calls = append(s.calls, call{purpose: req.Purpose, vars: req.PromptVariables})
	return s.reply(len(s.calls), req)
}

func (s *scripted) purposes() []models.Purpose {
	out := make([]models.Purpose, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.purpose
	}
	return out
}

func paragraphs(n int) []models.Paragraph {
	out := make([]models.Paragraph, n)
	for i := range out {
		out[i] = models.Paragraph{Index: i + 1, Text: gofakeit.Sentence(8)}
	}
	return out
}

func checkRequest(n int) CheckRequest {
	return CheckRequest{
		CheckID:     "check-1",
		DocA:        "contract_en.docx",
		DocB:        "contract_de.docx",
		Languages:   models.LanguagePair{Primary: "en", Secondary: "fr"},
		ParagraphsA: paragraphs(n),
		ParagraphsB: paragraphs(n),
	}
}

func TestRunRejectsUnequalLengthsBeforeAnyCall(t *testing.T) {
	gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return "", nil }}
	pub := &recordingPublisher{}
	o := New(gen, Options{Schema: models.SchemaV2}, pub)

	req := checkRequest(3)
	req.ParagraphsB = req.ParagraphsB[:2]

	_, err := o.Run(context.Background(), req)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "paragraphs", verr.Field)
	assert.Empty(t, gen.calls)
	assert.Empty(t, pub.progress)
	assert.Empty(t, pub.sessions)
}

func TestRunValidation(t *testing.T) {
	o := New(&scripted{}, Options{}, nil)

	_, err := o.Run(context.Background(), CheckRequest{})
	assert.ErrorIs(t, err, models.ErrValidation)

	req := checkRequest(2)
	req.ParagraphsA[1].Index = -1
	_, err = o.Run(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrValidation)

	req = checkRequest(2)
	req.ParagraphsA[0].Index, req.ParagraphsB[0].Index = 5, 5
	req.ParagraphsA[1].Index, req.ParagraphsB[1].Index = 3, 3
	_, err = o.Run(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestValidatePairsParagraphNumbers(t *testing.T) {
	numbered := func(indices ...int) []models.Paragraph {
		out := make([]models.Paragraph, len(indices))
		for i, n := range indices {
			out[i] = models.Paragraph{Index: n, Text: gofakeit.Sentence(4)}
		}
		return out
	}

	tests := []struct {
		name    string
		a, b    []int
		want    []int
		wantErr bool
	}{
		{name: "equal numbers", a: []int{2, 4}, b: []int{2, 4}, want: []int{2, 4}},
		{name: "zero takes the position", a: []int{0, 0}, b: []int{0, 0}, want: []int{1, 2}},
		{name: "zero takes the partner's number", a: []int{0, 7}, b: []int{3, 0}, want: []int{3, 7}},
		{name: "numbers disagree", a: []int{1, 2}, b: []int{1, 3}, wantErr: true},
		{name: "partner numbers must still ascend", a: []int{0, 0}, b: []int{5, 2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := validate(numbered(tt.a...), numbered(tt.b...))
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			require.Len(t, pairs, len(tt.want))
			for i, p := range pairs {
				assert.Equal(t, tt.want[i], p.index)
				assert.Equal(t, tt.want[i], p.a.Index)
				assert.Equal(t, tt.want[i], p.b.Index)
			}
		})
	}

	err := Validate(numbered(1, 2), numbered(1, 3))
	assert.ErrorContains(t, err, "numbered 2 and 3")
}

func TestRunSequentialWithProgress(t *testing.T) {
	gen := &scripted{reply: func(n int, _ models.GenerationRequest) (string, error) {
		if n == 2 {
			return datesReply, nil
		}
		return "", nil
	}}
	pub := &recordingPublisher{}
	o := New(gen, Options{Schema: models.SchemaV2, AppVersion: "1.2.3"}, pub)

	req := checkRequest(3)
	res, err := o.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.Results, 3)
	for i, r := range res.Results {
		assert.Equal(t, i+1, r.ParagraphIndex)
		assert.True(t, r.State.Resolved())
	}
	assert.Equal(t, models.ParagraphResolvedNoDiff, res.Results[0].State)
	assert.Equal(t, models.ParagraphResolvedWithDiff, res.Results[1].State)

	diff := res.Results[1].Differences[0]
	assert.Equal(t, "dates", diff.EntityType)
	assert.Equal(t, "2 March 2020", diff.ValueLangB)
	assert.Nil(t, diff.Ruling)
	assert.Equal(t, 1, res.Results[1].Totals.Dates)
	assert.Equal(t, 1, res.Results[1].Totals.All)
	assert.NotNil(t, res.Results[1].OriginalInput)

	for i, c := range gen.calls {
		assert.Equal(t, models.PurposeAnalyzeV2, c.purpose)
		assert.Equal(t, req.ParagraphsA[i].Text, c.vars[models.VarParagraphsLanguageOne])
		assert.Equal(t, req.ParagraphsB[i].Text, c.vars[models.VarParagraphsLanguageTwo])
	}

	require.Len(t, pub.progress, 3)
	for i, ev := range pub.progress {
		assert.Equal(t, "check-1", ev.CheckID)
		assert.Equal(t, i+1, ev.Completed)
		assert.Equal(t, 3, ev.Total)
		assert.Len(t, ev.Results, i+1)
	}

	require.Len(t, pub.sessions, 1)
	session := pub.sessions[0]
	assert.Equal(t, "check-1", session.ID)
	assert.Equal(t, 3, session.ParagraphCount)
	assert.Equal(t, 1, session.AnalysisCount)
	assert.Equal(t, "1.2.3", session.AppVersion)
	assert.Equal(t, &session, res.Session)
}

func TestRunSessionNotRecorded(t *testing.T) {
	gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return datesReply, nil }}
	pub := &recordingPublisher{sessionErr: models.NewStoreError("record session", errors.New("connection refused"))}
	o := New(gen, Options{Schema: models.SchemaV2}, pub)

	res, err := o.Run(context.Background(), checkRequest(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStore)

	// the analysis itself is kept
	require.NotNil(t, res)
	assert.Len(t, res.Results, 2)
	require.NotNil(t, res.Session)
	assert.Equal(t, res.CheckID, res.Session.ID)
	assert.Len(t, pub.progress, 2)
}

func TestRunPublishedListsAreNotMutated(t *testing.T) {
	gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return datesReply, nil }}
	pub := &recordingPublisher{}
	o := New(gen, Options{Schema: models.SchemaV2}, pub)

	res, err := o.Run(context.Background(), checkRequest(3))
	require.NoError(t, err)

	res.Results[0].Differences[0].Explanation = "changed"
	require.Len(t, pub.progress, 3)
	assert.Len(t, pub.progress[0].Results, 1)
	assert.Len(t, pub.progress[1].Results, 2)
	assert.Equal(t, 1, pub.progress[0].Results[0].ParagraphIndex)
}

func TestRunJudgePass(t *testing.T) {
	twoDiffs := `{"differences":[` +
		`{"entitytype":"dates","entityvaluelang1":"1 May","entityvaluelang2":"2 May"},` +
		`{"entitytype":"money","entityvaluelang1":"EUR 10","entityvaluelang2":"EUR 100"}]}`

	gen := &scripted{reply: func(n int, req models.GenerationRequest) (string, error) {
		switch req.Purpose {
		case models.PurposeAnalyzeV2:
			return twoDiffs, nil
		case models.PurposeJudge:
			if strings.Contains(req.PromptVariables[models.VarDifference], "money") {
				return "not json at all", nil
			}
			return "```json\n{\"evaluation\": true}\n```", nil
		}
		return "", fmt.Errorf("unexpected purpose %s", req.Purpose)
	}}
	o := New(gen, Options{Schema: models.SchemaV2, Judge: true}, nil)

	res, err := o.Run(context.Background(), checkRequest(1))
	require.NoError(t, err)

	assert.Equal(t, []models.Purpose{
		models.PurposeAnalyzeV2, models.PurposeJudge, models.PurposeJudge,
	}, gen.purposes())
	assert.Contains(t, gen.calls[1].vars[models.VarDifference], `"entitytype":"dates"`)

	diffs := res.Results[0].Differences
	require.Len(t, diffs, 2)
	require.NotNil(t, diffs[0].Ruling)
	assert.True(t, *diffs[0].Ruling)
	assert.Nil(t, diffs[1].Ruling)
}

func TestRunJudgeOverride(t *testing.T) {
	gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return datesReply, nil }}
	o := New(gen, Options{Schema: models.SchemaV2, Judge: true}, nil)

	req := checkRequest(2)
	off := false
	req.Judge = &off
	_, err := o.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, gen.calls, 2)
}

func TestRunDegradesFailedParagraphs(t *testing.T) {
	gen := &scripted{reply: func(n int, _ models.GenerationRequest) (string, error) {
		switch n {
		case 1:
			return "", models.NewUpstreamError(503, "unavailable", nil)
		case 2:
			return "I could not find any differences.", nil
		}
		return datesReply, nil
	}}
	o := New(gen, Options{Schema: models.SchemaV2}, nil)

	res, err := o.Run(context.Background(), checkRequest(3))
	require.NoError(t, err)
	require.Len(t, res.Results, 3)

	first := res.Results[0]
	assert.Equal(t, models.ParagraphResolvedNoDiff, first.State)
	assert.Contains(t, first.Error, "503")
	assert.Empty(t, first.Differences)
	assert.NotNil(t, first.Totals)

	second := res.Results[1]
	assert.Equal(t, models.ParagraphResolvedNoDiff, second.State)
	assert.Equal(t, "I could not find any differences.", second.RawReply)
	assert.NotEmpty(t, second.Error)

	assert.Equal(t, models.ParagraphResolvedWithDiff, res.Results[2].State)
}

func TestRunAuthFailure(t *testing.T) {
	authErr := models.NewAuthError("identity service returned status 500", nil)

	t.Run("first paragraph aborts", func(t *testing.T) {
		gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return "", authErr }}
		pub := &recordingPublisher{}
		o := New(gen, Options{Schema: models.SchemaV2}, pub)

		res, err := o.Run(context.Background(), checkRequest(3))
		assert.ErrorIs(t, err, models.ErrAuth)
		require.NotNil(t, res)
		assert.Empty(t, res.Results)
		assert.Len(t, gen.calls, 1)
		assert.Empty(t, pub.sessions)
	})

	t.Run("later paragraph degrades", func(t *testing.T) {
		gen := &scripted{reply: func(n int, _ models.GenerationRequest) (string, error) {
			if n == 2 {
				return "", authErr
			}
			return "", nil
		}}
		o := New(gen, Options{Schema: models.SchemaV2}, nil)

		res, err := o.Run(context.Background(), checkRequest(3))
		require.NoError(t, err)
		require.Len(t, res.Results, 3)
		assert.NotEmpty(t, res.Results[1].Error)
	})
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &scripted{reply: func(n int, _ models.GenerationRequest) (string, error) {
		if n == 2 {
			cancel()
		}
		return "", nil
	}}
	pub := &recordingPublisher{}
	o := New(gen, Options{Schema: models.SchemaV2}, pub)

	res, err := o.Run(ctx, checkRequest(5))
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	assert.Len(t, res.Results, 2)
	assert.Len(t, gen.calls, 2)
	assert.Empty(t, pub.sessions)
}

func TestRunSwapsLanguages(t *testing.T) {
	gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return "", nil }}
	o := New(gen, Options{Schema: models.SchemaV2}, nil)

	req := checkRequest(2)
	req.Languages = models.LanguagePair{Primary: "lv", Secondary: "en"}

	res, err := o.Run(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.Swapped)
	assert.Equal(t, "contract_de.docx", res.DocA)
	assert.Equal(t, "en", res.Languages.Primary)
	assert.Equal(t, req.ParagraphsB[0].Text, gen.calls[0].vars[models.VarParagraphsLanguageOne])
	assert.Equal(t, req.ParagraphsA[0].Text, gen.calls[0].vars[models.VarParagraphsLanguageTwo])
}

func TestRunRenumbersZeroIndices(t *testing.T) {
	gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return "", nil }}
	o := New(gen, Options{}, nil)

	req := checkRequest(3)
	for i := range req.ParagraphsA {
		req.ParagraphsA[i].Index = 0
		req.ParagraphsB[i].Index = 0
	}
	res, err := o.Run(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, res.CheckID)
	for i, r := range res.Results {
		assert.Equal(t, i+1, r.ParagraphIndex)
	}
}

func TestRunSchemaV1(t *testing.T) {
	reply := `{"en": {"dates": [{"value": "1 March", "originaltext": "on 1 March"}]},` +
		` "fr": {"dates": [{"value": "2 mars", "originaltext": "le 2 mars"}]}}`
	gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return reply, nil }}
	o := New(gen, Options{Schema: models.SchemaV1, Judge: true}, nil)

	res, err := o.Run(context.Background(), checkRequest(1))
	require.NoError(t, err)

	assert.Equal(t, []models.Purpose{models.PurposeAnalyzeV1}, gen.purposes())
	r := res.Results[0]
	assert.Equal(t, models.ParagraphResolvedWithDiff, r.State)
	require.NotNil(t, r.DocA)
	assert.Equal(t, "en", r.DocA.Language)
	assert.Equal(t, "1 March", r.DocA.Diff[0].Description)
	assert.Equal(t, "le 2 mars", r.DocB.Diff[0].OriginalText)
}

func TestJudge(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    bool
		wantErr error
	}{
		{name: "bool", reply: `{"evaluation": false}`, want: false},
		{name: "string", reply: `Verdict: {"evaluation": "true"}`, want: true},
		{name: "missing field", reply: `{"verdict": true}`, wantErr: models.ErrExtraction},
		{name: "not a boolean", reply: `{"evaluation": 3}`, wantErr: models.ErrExtraction},
		{name: "no json", reply: `maybe`, wantErr: models.ErrExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scripted{reply: func(int, models.GenerationRequest) (string, error) { return tt.reply, nil }}
			o := New(gen, Options{}, nil)

			got, raw, err := o.Judge(context.Background(), models.DifferenceV2{EntityType: "dates"})
			assert.Equal(t, tt.reply, raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
