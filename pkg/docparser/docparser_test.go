package docparser

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(url string) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.HTTPClient.Timeout = 5 * time.Second
	c.Logger = nil
	return NewClient(url, c)
}

func TestParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)

		var out []models.ParsedDocument
		for _, fh := range files {
			f, err := fh.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(f)
			require.NoError(t, err)
			out = append(out, models.ParsedDocument{
				File:       fh.Filename,
				Paragraphs: []models.Paragraph{{Index: 1, Text: string(b)}},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	docs, err := newClient(srv.URL).Parse(context.Background(), []models.UploadedFile{
		{Name: "a_en.docx", Content: []byte("first")},
		{Name: "b_lv.docx", Content: []byte("second")},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a_en.docx", docs[0].File)
	assert.Equal(t, "second", docs[1].Paragraphs[0].Text)
}

func TestParseUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Parse(context.Background(), []models.UploadedFile{
		{Name: "a.docx"}, {Name: "b.docx"},
	})
	var upstream *models.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
}

func TestParseValidation(t *testing.T) {
	_, err := newClient("http://unused").Parse(context.Background(), []models.UploadedFile{{Name: "a.docx"}})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = newClient("").Parse(context.Background(), []models.UploadedFile{{Name: "a"}, {Name: "b"}})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = newClient("http://unused").Parse(context.Background(), []models.UploadedFile{{Name: "a"}, {}})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestOrderLanguages(t *testing.T) {
	tests := []struct {
		in      models.LanguagePair
		want    models.LanguagePair
		swapped bool
	}{
		{models.LanguagePair{Primary: "lv", Secondary: "en"}, models.LanguagePair{Primary: "en", Secondary: "lv"}, true},
		{models.LanguagePair{Primary: "LV", Secondary: "de"}, models.LanguagePair{Primary: "de", Secondary: "LV"}, true},
		{models.LanguagePair{Primary: "de", Secondary: "en"}, models.LanguagePair{Primary: "en", Secondary: "de"}, true},
		{models.LanguagePair{Primary: "de", Secondary: "fr"}, models.LanguagePair{Primary: "de", Secondary: "fr"}, false},
		{models.LanguagePair{Primary: "en", Secondary: "lv"}, models.LanguagePair{Primary: "en", Secondary: "lv"}, false},
	}
	for _, tt := range tests {
		got, swapped := OrderLanguages(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.swapped, swapped)
	}
}

func TestOrderDocuments(t *testing.T) {
	a := models.ParsedDocument{File: "lv.docx"}
	b := models.ParsedDocument{File: "en.docx"}
	first, second, langs := OrderDocuments(a, b, models.LanguagePair{Primary: "lv", Secondary: "en"})
	assert.Equal(t, "en.docx", first.File)
	assert.Equal(t, "lv.docx", second.File)
	assert.Equal(t, "en", langs.Primary)
}
