package apihandlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"github.com/lexalign/concordance/pkg/feedback"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/server/handlertools"
)

const feedbackIDParam = "feedbackId"

var validate = validator.New()

type WriteResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// FeedbackRequest is the body of /writeConcordanceFeedback.
type FeedbackRequest struct {
	FeedbackID      string              `json:"feedbackId"      validate:"required"`
	FeedbackType    models.FeedbackType `json:"feedbacktype"    validate:"required,oneof=thumbsUp thumbsDown"`
	ParagraphNumber int                 `json:"paragraphNumber" validate:"gte=0"`
	ParagraphA      string              `json:"paragraphA"`
	ParagraphB      string              `json:"paragraphB"`
	Difference      models.DifferenceV2 `json:"difference"`
	Feedback        string              `json:"feedback"`
}

type FeedbackResponse struct {
	OK       bool                 `json:"ok"`
	ID       string               `json:"id,omitempty"`
	Recorded bool                 `json:"recorded"`
	State    models.FeedbackState `json:"state"`
}

type DetailsResponse struct {
	Docs []models.Document `json:"docs"`
}

// WriteConcordanceRecordHandler stores an arbitrary record document.
//
//	POST /writeConcordanceRecord
func WriteConcordanceRecordHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc models.Document
		if err := handlertools.DecodeJSON(r, &doc); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if len(doc) == 0 {
			handlertools.RenderError(w, models.NewValidationError("body", "record is empty"), http.StatusBadRequest)
			return
		}

		id, err := appState.DocumentStore.Create(r.Context(), appState.Config.Store.RecordsDatabase, doc)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, WriteResponse{OK: true, ID: id}); err != nil {
			log.Errorf("error encoding response: %s", err)
		}
	}
}

// WriteConcordanceFeedbackHandler records a reviewer vote. A second vote on
// the same difference is answered with ok=false and the current state.
//
//	POST /writeConcordanceFeedback
func WriteConcordanceFeedbackHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedbackRequest
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			handlertools.RenderError(w, models.NewValidationError("feedback", err.Error()), http.StatusBadRequest)
			return
		}

		var rec models.FeedbackRecord
		if err := copier.Copy(&rec, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		recorder := feedback.NewRecorder(appState.DocumentStore, appState.Config.Store.FeedbackDatabase)
		out, err := recorder.Record(r.Context(), rec)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		resp := FeedbackResponse{OK: out.Recorded, ID: out.ID, Recorded: out.Recorded, State: out.State}
		if err := handlertools.EncodeJSON(w, resp); err != nil {
			log.Errorf("error encoding response: %s", err)
		}
	}
}

// GetAllConcordanceTestsHandler lists every stored record.
//
//	GET /getAllConcordanceTests
func GetAllConcordanceTestsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := appState.DocumentStore.All(r.Context(), appState.Config.Store.RecordsDatabase)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if err := handlertools.EncodeJSON(w, docs); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}

// GetConcordanceTestDetailsHandler lists the feedback of one session.
//
//	GET /getConcordanceTestDetails?feedbackId=
func GetConcordanceTestDetailsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feedbackID := r.URL.Query().Get(feedbackIDParam)
		if feedbackID == "" {
			handlertools.RenderError(
				w,
				models.NewValidationError(feedbackIDParam, "query parameter is required"),
				http.StatusBadRequest,
			)
			return
		}

		recorder := feedback.NewRecorder(appState.DocumentStore, appState.Config.Store.FeedbackDatabase)
		docs, err := recorder.Details(r.Context(), feedbackID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if docs == nil {
			docs = []models.Document{}
		}

		if err := handlertools.EncodeJSON(w, DetailsResponse{Docs: docs}); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}
