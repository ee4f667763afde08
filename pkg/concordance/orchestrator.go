// Package concordance runs a concordance check: every paragraph pair of two
// documents is compared by a generation deployment, one pair at a time.
package concordance

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/docparser"
	"github.com/lexalign/concordance/pkg/models"
)

var log = internal.GetLogger()

// ProgressPublisher receives the partial results of a check and the session
// summary once it completes. PublishSession returns once the session is
// recorded, or with the reason it was not.
type ProgressPublisher interface {
	PublishProgress(event models.ProgressEvent) error
	PublishSession(session models.ConcordanceSession) error
}

type Options struct {
	Schema     models.SchemaVersion
	Judge      bool
	AppVersion string
}

// OptionsFromConfig reads the orchestrator options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	schema := models.SchemaVersion(cfg.Concordance.SchemaVersion)
	if schema != models.SchemaV1 {
		schema = models.SchemaV2
	}
	return Options{
		Schema:     schema,
		Judge:      !cfg.Concordance.DisableJudge,
		AppVersion: config.VersionString,
	}
}

// CheckRequest describes one check. Judge overrides Options.Judge when set.
type CheckRequest struct {
	CheckID     string
	DocA        string
	DocB        string
	Languages   models.LanguagePair
	ParagraphsA []models.Paragraph
	ParagraphsB []models.Paragraph
	Judge       *bool
}

// CheckResult is the outcome of a check. Results is in ascending paragraph
// order and holds only resolved paragraphs.
type CheckResult struct {
	CheckID   string                     `json:"checkId"`
	DocA      string                     `json:"docA"`
	DocB      string                     `json:"docB"`
	Languages models.LanguagePair        `json:"languages"`
	Swapped   bool                       `json:"swapped"`
	Results   []models.AnalysisResult    `json:"results"`
	Session   *models.ConcordanceSession `json:"session,omitempty"`
}

type Orchestrator struct {
	gen       models.Generator
	opts      Options
	publisher ProgressPublisher
	now       func() time.Time
}

// New returns an Orchestrator. publisher may be nil.
func New(gen models.Generator, opts Options, publisher ProgressPublisher) *Orchestrator {
	if opts.Schema == "" {
		opts.Schema = models.SchemaV2
	}
	return &Orchestrator{
		gen:       gen,
		opts:      opts,
		publisher: publisher,
		now:       time.Now,
	}
}

// Run validates req and compares its paragraph pairs in index order. Failures
// of a single paragraph degrade it to no differences. The run aborts only on
// invalid input, on an auth failure of the first paragraph, or when ctx is
// done, in which case the results so far are returned with ctx's error.
func (o *Orchestrator) Run(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	pairs, err := validate(req.ParagraphsA, req.ParagraphsB)
	if err != nil {
		return nil, err
	}

	checkID := req.CheckID
	if checkID == "" {
		checkID = uuid.NewString()
	}

	langs, swapped := docparser.OrderLanguages(req.Languages)
	docA, docB := req.DocA, req.DocB
	if swapped {
		docA, docB = docB, docA
		pairs = swapPairs(pairs)
	}

	judge := o.opts.Judge
	if req.Judge != nil {
		judge = *req.Judge
	}

	check := &CheckResult{
		CheckID:   checkID,
		DocA:      docA,
		DocB:      docB,
		Languages: langs,
		Swapped:   swapped,
		Results:   []models.AnalysisResult{},
	}
	log.Infof("starting check %s with %d paragraphs", checkID, len(pairs))

	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			log.Infof("check %s cancelled after %d of %d paragraphs", checkID, i, len(pairs))
			return check, err
		}

		result, err := o.analyzePair(ctx, p, langs)
		if err != nil {
			if i == 0 && errors.Is(err, models.ErrAuth) {
				log.Errorf("check %s aborted, token service unavailable: %s", checkID, err)
				return check, err
			}
			if ctx.Err() != nil {
				return check, ctx.Err()
			}
		}

		if judge && o.opts.Schema == models.SchemaV2 && result.HasDifferences() {
			result, err = o.judgeAll(ctx, result)
			if err != nil {
				return check, err
			}
		}

		check.Results = appendResult(check.Results, *result)
		o.publishProgress(checkID, check.Results, len(pairs))
	}

	session := o.session(check, len(pairs))
	check.Session = &session
	if err := o.publishSession(session); err != nil {
		return check, err
	}
	log.Infof("finished check %s", checkID)

	return check, nil
}

// appendResult returns a new slice; earlier slices handed to subscribers are
// never written again.
func appendResult(results []models.AnalysisResult, r models.AnalysisResult) []models.AnalysisResult {
	out := make([]models.AnalysisResult, len(results), len(results)+1)
	copy(out, results)
	return append(out, r)
}

func (o *Orchestrator) publishProgress(checkID string, results []models.AnalysisResult, total int) {
	if o.publisher == nil {
		return
	}
	err := o.publisher.PublishProgress(models.ProgressEvent{
		CheckID:   checkID,
		Completed: len(results),
		Total:     total,
		Results:   slices.Clone(results),
	})
	if err != nil {
		log.Errorf("check %s: failed to publish progress: %s", checkID, err)
	}
}

func (o *Orchestrator) session(check *CheckResult, paragraphs int) models.ConcordanceSession {
	analyses := 0
	for i := range check.Results {
		analyses += check.Results[i].DifferenceCount()
	}
	return models.ConcordanceSession{
		ID:             check.CheckID,
		Timestamp:      o.now().UTC(),
		DocA:           check.DocA,
		DocB:           check.DocB,
		ParagraphCount: paragraphs,
		AnalysisCount:  analyses,
		AppVersion:     o.opts.AppVersion,
	}
}

// publishSession reports the session. A session that could not be recorded
// fails the check; its results are still returned.
func (o *Orchestrator) publishSession(session models.ConcordanceSession) error {
	if o.publisher == nil {
		return nil
	}
	if err := o.publisher.PublishSession(session); err != nil {
		log.Errorf("failed to record session %s: %s", session.ID, err)
		return err
	}
	return nil
}
