package apihandlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lexalign/concordance/pkg/docparser"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/server/handlertools"
	"github.com/lexalign/concordance/pkg/testgen"
)

const (
	filesField             = "files"
	primaryLanguageField   = "primaryLanguage"
	secondaryLanguageField = "secondaryLanguage"
)

type ParseDocumentsResponse struct {
	Documents         []models.ParsedDocument `json:"documents"`
	PrimaryLanguage   string                  `json:"primaryLanguage"`
	SecondaryLanguage string                  `json:"secondaryLanguage"`
	Swapped           bool                    `json:"swapped"`
}

type ShapeErrorResponse struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// ParseDocumentsHandler forwards two uploaded documents to the parsing
// service and returns them in comparison order.
//
//	POST /parseDocuments
func ParseDocumentsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if appState.DocumentParser == nil {
			handlertools.RenderError(w, errors.New("document parser is not configured"), http.StatusInternalServerError)
			return
		}
		if err := r.ParseMultipartForm(appState.Config.Server.MaxRequestSize); err != nil {
			handlertools.RenderError(
				w,
				models.NewValidationError(filesField, fmt.Sprintf("invalid multipart form: %s", err)),
				http.StatusBadRequest,
			)
			return
		}
		files, err := uploadedFiles(r)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		docs, err := appState.DocumentParser.Parse(r.Context(), files)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadGateway)
			return
		}

		langs := models.LanguagePair{
			Primary:   r.FormValue(primaryLanguageField),
			Secondary: r.FormValue(secondaryLanguageField),
		}
		a, b, ordered := docparser.OrderDocuments(docs[0], docs[1], langs)
		_, swapped := docparser.OrderLanguages(langs)

		resp := ParseDocumentsResponse{
			Documents:         []models.ParsedDocument{a, b},
			PrimaryLanguage:   ordered.Primary,
			SecondaryLanguage: ordered.Secondary,
			Swapped:           swapped,
		}
		if err := handlertools.EncodeJSON(w, resp); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}

func uploadedFiles(r *http.Request) ([]models.UploadedFile, error) {
	headers := r.MultipartForm.File[filesField]
	if len(headers) != 2 {
		return nil, models.NewValidationError(filesField, fmt.Sprintf("expected 2 files, got %d", len(headers)))
	}
	files := make([]models.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, models.UploadedFile{Name: fh.Filename, Content: content})
	}
	return files, nil
}

// GenerateTestFilesHandler builds a synthetic test document pair.
//
//	POST /generateTestFiles
func GenerateTestFilesHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testgen.Request
		if err := handlertools.DecodeJSON(r, &req); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		resp, err := testgen.NewGenerator(appState.Generator).Generate(r.Context(), req)
		if err != nil {
			var shapeErr *testgen.ShapeError
			if errors.As(err, &shapeErr) {
				log.Errorf("generateTestFiles: %s", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadGateway)
				_ = handlertools.EncodeJSON(w, ShapeErrorResponse{Error: shapeErr.Error(), Raw: shapeErr.Raw})
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, resp); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}
