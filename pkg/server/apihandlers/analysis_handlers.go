package apihandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/concordance"
	"github.com/lexalign/concordance/pkg/events"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/server/handlertools"
)

var log = internal.GetLogger()

const judgeParam = "judge"

type PromptParameters struct {
	PromptVariables map[string]any `json:"prompt_variables"`
}

// AnalyzeParasRequest is the body of /analyzeParas. V2 defaults to true.
type AnalyzeParasRequest struct {
	PrimLang   string           `json:"primLang"`
	SecLang    string           `json:"secLang"`
	V2         *bool            `json:"v2"`
	Parameters PromptParameters `json:"parameters"`
}

type JudgeRequest struct {
	Differences []models.DifferenceV2 `json:"differences"`
}

type JudgeResponse struct {
	Evaluation bool   `json:"evaluation"`
	RawReply   string `json:"rawReply,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AnalyzeDocumentsRequest is the body of /analyzeDocuments.
type AnalyzeDocumentsRequest struct {
	CheckID     string             `json:"checkId"`
	DocA        string             `json:"docA"`
	DocB        string             `json:"docB"`
	PrimLang    string             `json:"primLang"`
	SecLang     string             `json:"secLang"`
	ParagraphsA []models.Paragraph `json:"paragraphsA"`
	ParagraphsB []models.Paragraph `json:"paragraphsB"`
	Judge       *bool              `json:"judge"`
}

// CheckDone is the last line of an /analyzeDocuments stream.
type CheckDone struct {
	CheckID string                     `json:"checkId"`
	Done    bool                       `json:"done"`
	Swapped bool                       `json:"swapped"`
	Session *models.ConcordanceSession `json:"session,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

func newOrchestrator(appState *models.AppState, publisher concordance.ProgressPublisher) *concordance.Orchestrator {
	return concordance.New(
		appState.Generator,
		concordance.OptionsFromConfig(appState.Config),
		publisher,
	)
}

// AnalyzeParasHandler compares a single paragraph pair.
//
//	POST /analyzeParas
func AnalyzeParasHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeParasRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		textA, err := stringVariable(req.Parameters.PromptVariables, models.VarParagraphsLanguageOne)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		textB, err := stringVariable(req.Parameters.PromptVariables, models.VarParagraphsLanguageTwo)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		schema := models.ParseSchemaVersion(req.V2 == nil || *req.V2)
		langs := models.LanguagePair{Primary: req.PrimLang, Secondary: req.SecLang}

		result, err := newOrchestrator(appState, nil).Analyze(r.Context(), textA, textB, schema, langs)
		if err != nil {
			if errors.Is(err, models.ErrAuth) || errors.Is(err, context.Canceled) {
				handlertools.RenderError(w, err, http.StatusBadGateway)
				return
			}
			log.Warnf("analyzeParas degraded: %s", err)
		}

		if err := handlertools.EncodeJSON(w, analyzeResponse(result)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}

// analyzeResponse shapes a result the way the UI reads it. Lists are always
// present, even when empty.
func analyzeResponse(r *models.AnalysisResult) map[string]any {
	resp := map[string]any{"originalInput": r.OriginalInput}
	if r.Schema == models.SchemaV1 {
		resp["doc1"] = r.DocA
		resp["doc2"] = r.DocB
	} else {
		diffs := r.Differences
		if diffs == nil {
			diffs = []models.DifferenceV2{}
		}
		resp["differences"] = diffs
		resp["totals"] = r.Totals
	}
	if r.RawReply != "" {
		resp["rawReply"] = r.RawReply
	}
	if r.Error != "" {
		resp["error"] = r.Error
	}
	return resp
}

func stringVariable(vars map[string]any, name string) (string, error) {
	v, ok := vars[name]
	if !ok {
		return "", models.NewValidationError(name, "prompt variable is missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", models.NewValidationError(name, fmt.Sprintf("prompt variable must be a string, got %T", v))
	}
	return s, nil
}

// JudgeParaDiffsHandler asks the judge deployment to rule on differences.
//
//	POST /judgeParaDiffs
func JudgeParaDiffsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JudgeRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if len(req.Differences) == 0 {
			handlertools.RenderError(
				w,
				models.NewValidationError("differences", "at least one difference is required"),
				http.StatusBadRequest,
			)
			return
		}

		var subject any = req.Differences
		if len(req.Differences) == 1 {
			subject = req.Differences[0]
		}

		evaluation, raw, err := newOrchestrator(appState, nil).Judge(r.Context(), subject)
		resp := JudgeResponse{Evaluation: evaluation}
		if err != nil {
			if errors.Is(err, models.ErrAuth) || errors.Is(err, context.Canceled) {
				handlertools.RenderError(w, err, http.StatusBadGateway)
				return
			}
			log.Warnf("judgeParaDiffs degraded: %s", err)
			resp = JudgeResponse{Evaluation: false, RawReply: raw, Error: err.Error()}
		}

		if err := handlertools.EncodeJSON(w, resp); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}

// AnalyzeDocumentsHandler runs a full check and streams the growing result
// list as newline-delimited JSON, one ProgressEvent per paragraph, followed
// by a CheckDone line. A judge query parameter overrides the body's judge.
//
//	POST /analyzeDocuments[?judge=false]
func AnalyzeDocumentsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeDocumentsRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := concordance.Validate(req.ParagraphsA, req.ParagraphsB); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get(judgeParam) != "" {
			judge, err := handlertools.BoolFromQuery(r, judgeParam)
			if err != nil {
				handlertools.RenderError(w, models.NewValidationError(judgeParam, err.Error()), http.StatusBadRequest)
				return
			}
			req.Judge = &judge
		}
		if appState.PubSub == nil {
			handlertools.RenderError(w, errors.New("event bus is not configured"), http.StatusInternalServerError)
			return
		}

		checkID := req.CheckID
		if checkID == "" {
			checkID = uuid.NewString()
		}

		ctx := r.Context()
		progress, err := appState.PubSub.Subscribe(ctx, events.ProgressTopic(checkID))
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		type outcome struct {
			result *concordance.CheckResult
			err    error
		}
		done := make(chan outcome, 1)
		// the session is recorded before Run returns; a failure ends the
		// stream with done=false and the store error
		orchestrator := newOrchestrator(appState, events.NewCheckPublisher(appState.PubSub, appState.Sessions))
		go func() {
			res, err := orchestrator.Run(ctx, concordance.CheckRequest{
				CheckID:     checkID,
				DocA:        req.DocA,
				DocB:        req.DocB,
				Languages:   models.LanguagePair{Primary: req.PrimLang, Secondary: req.SecLang},
				ParagraphsA: req.ParagraphsA,
				ParagraphsB: req.ParagraphsB,
				Judge:       req.Judge,
			})
			done <- outcome{result: res, err: err}
		}()

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		stream := newLineWriter(w)
		log.Debugf("streaming check %s for request %s", checkID, middleware.GetReqID(ctx))

		for {
			select {
			case msg, ok := <-progress:
				if !ok {
					// subscription closed with the request context
					<-done
					return
				}
				ev, err := events.DecodeProgress(msg)
				if err != nil {
					log.Errorf("check %s: %s", checkID, err)
				} else if err := stream.write(ev); err != nil {
					log.Warnf("check %s: client went away: %s", checkID, err)
				}
				msg.Ack()
			case out := <-done:
				// every progress message was acked before Run returned
				line := CheckDone{CheckID: checkID, Done: out.err == nil}
				if out.result != nil {
					line.Swapped = out.result.Swapped
					line.Session = out.result.Session
				}
				if out.err != nil {
					line.Error = out.err.Error()
				}
				if err := stream.write(line); err != nil {
					log.Warnf("check %s: client went away: %s", checkID, err)
				}
				return
			}
		}
	}
}

type lineWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newLineWriter(w http.ResponseWriter) *lineWriter {
	f, _ := w.(http.Flusher)
	return &lineWriter{w: w, flusher: f}
}

func (l *lineWriter) write(v any) error {
	if err := json.NewEncoder(l.w).Encode(v); err != nil {
		return err
	}
	if l.flusher != nil {
		l.flusher.Flush()
	}
	return nil
}
