// Package docparser talks to the external service that splits uploaded
// documents into numbered paragraphs.
package docparser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/models"
)

var log = internal.GetLogger()

const (
	filesField     = "files"
	maxErrorBody   = 4 << 10
	maxResponseLen = 32 << 20
)

var _ models.DocumentParser = &Client{}

type Client struct {
	url    string
	client *retryablehttp.Client
}

func NewClient(url string, client *retryablehttp.Client) *Client {
	return &Client{url: url, client: client}
}

// Parse uploads both files in one multipart request and returns the parsed
// documents in upload order.
func (c *Client) Parse(ctx context.Context, files []models.UploadedFile) ([]models.ParsedDocument, error) {
	if c.url == "" {
		return nil, models.NewValidationError("parser.url", "document parser URL is not configured")
	}
	if len(files) != 2 {
		return nil, models.NewValidationError(filesField, "exactly two files are required")
	}

	body, contentType, err := encodeFiles(files)
	if err != nil {
		return nil, err
	}
	log.Debugf("uploading %s to document parser", humanize.Bytes(uint64(len(body))))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("building parser request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, models.NewUpstreamError(0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, models.NewUpstreamError(resp.StatusCode, internal.Truncate(string(b), 512), nil)
	}

	var docs []models.ParsedDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseLen)).Decode(&docs); err != nil {
		return nil, models.NewUpstreamError(resp.StatusCode, "", fmt.Errorf("decoding parser response: %w", err))
	}
	if len(docs) < len(files) {
		return nil, models.NewUpstreamError(
			resp.StatusCode,
			"",
			fmt.Errorf("parser returned %d documents for %d files", len(docs), len(files)),
		)
	}

	return docs[:len(files)], nil
}

func encodeFiles(files []models.UploadedFile) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, f := range files {
		if f.Name == "" {
			return nil, "", models.NewValidationError(filesField, fmt.Sprintf("file %d has no name", i+1))
		}
		part, err := w.CreateFormFile(filesField, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
