package concordance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lexalign/concordance/pkg/extract"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/normalize"
)

const evaluationKey = "evaluation"

func (o *Orchestrator) analyzePair(ctx context.Context, p pair, langs models.LanguagePair) (*models.AnalysisResult, error) {
	result, err := o.Analyze(ctx, p.a.Text, p.b.Text, o.opts.Schema, langs)
	result.ParagraphIndex = p.index
	if err != nil {
		log.Warnf("paragraph %d degraded to no differences: %s", p.index, err)
	}
	return result, err
}

// Analyze compares one paragraph pair. It always returns a resolved result;
// when the call or the extraction fails the result is empty and carries the
// raw reply and error, and the error is returned as well.
func (o *Orchestrator) Analyze(
	ctx context.Context,
	textA, textB string,
	schema models.SchemaVersion,
	langs models.LanguagePair,
) (*models.AnalysisResult, error) {
	purpose := models.PurposeAnalyzeV2
	if schema == models.SchemaV1 {
		purpose = models.PurposeAnalyzeV1
	}

	raw, err := o.gen.Generate(ctx, models.GenerationRequest{
		Purpose: purpose,
		PromptVariables: map[string]string{
			models.VarParagraphsLanguageOne: textA,
			models.VarParagraphsLanguageTwo: textB,
		},
	})
	if err != nil {
		return degraded(schema, langs, raw, err), err
	}
	if strings.TrimSpace(raw) == "" {
		return resolve(normalize.Empty(schema, langs)), nil
	}

	obj, err := extract.Extract(raw)
	if err != nil {
		return degraded(schema, langs, raw, err), err
	}

	result, err := normalize.Normalize(obj, schema, langs)
	if err != nil {
		err = models.NewExtractionError(raw, err)
		return degraded(schema, langs, raw, err), err
	}
	result.OriginalInput = obj.Value

	return resolve(result), nil
}

// Judge asks the judge deployment whether subject, serialized to JSON, is a
// real discrepancy. The raw reply is returned for diagnostics.
func (o *Orchestrator) Judge(ctx context.Context, subject any) (bool, string, error) {
	b, err := json.Marshal(subject)
	if err != nil {
		return false, "", models.NewValidationError(models.VarDifference, err.Error())
	}

	raw, err := o.gen.Generate(ctx, models.GenerationRequest{
		Purpose:         models.PurposeJudge,
		PromptVariables: map[string]string{models.VarDifference: string(b)},
	})
	if err != nil {
		return false, raw, err
	}

	obj, err := extract.Extract(raw)
	if err != nil {
		return false, raw, err
	}
	v, ok := obj.Get(evaluationKey)
	if !ok {
		return false, raw, models.NewExtractionError(raw, fmt.Errorf("reply has no %q field", evaluationKey))
	}
	ruling, err := asBool(v)
	if err != nil {
		return false, raw, models.NewExtractionError(raw, err)
	}
	return ruling, raw, nil
}

// judgeAll rules on every difference of result, one call at a time. A failed
// call leaves that ruling unset. Only cancellation is returned as an error.
func (o *Orchestrator) judgeAll(ctx context.Context, result *models.AnalysisResult) (*models.AnalysisResult, error) {
	judged := *result
	judged.Differences = make([]models.DifferenceV2, len(result.Differences))
	copy(judged.Differences, result.Differences)

	for i, d := range judged.Differences {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		ruling, _, err := o.Judge(ctx, d)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			log.Warnf("paragraph %d: judging %s difference failed: %s",
				result.ParagraphIndex, d.EntityType, err)
			continue
		}
		judged.Differences[i].Ruling = &ruling
	}
	return &judged, nil
}

func resolve(r *models.AnalysisResult) *models.AnalysisResult {
	if r.HasDifferences() {
		r.State = models.ParagraphResolvedWithDiff
	} else {
		r.State = models.ParagraphResolvedNoDiff
	}
	return r
}

func degraded(schema models.SchemaVersion, langs models.LanguagePair, raw string, err error) *models.AnalysisResult {
	r := normalize.Empty(schema, langs)
	r.State = models.ParagraphResolvedNoDiff
	r.RawReply = raw
	if r.RawReply == "" {
		var ee *models.ExtractionError
		if errors.As(err, &ee) {
			r.RawReply = ee.Raw
		}
	}
	r.Error = err.Error()
	return r
}

func asBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%s is %T, not a boolean", evaluationKey, v)
	}
}
