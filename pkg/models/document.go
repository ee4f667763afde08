package models

import "context"

// UploadedFile is a document uploaded for parsing.
type UploadedFile struct {
	Name    string
	Content []byte
}

// ParsedDocument is one document split into numbered paragraphs.
type ParsedDocument struct {
	File       string      `json:"file"`
	Paragraphs []Paragraph `json:"para"`
}

// DocumentParser splits uploaded documents into paragraphs.
type DocumentParser interface {
	Parse(ctx context.Context, files []UploadedFile) ([]ParsedDocument, error)
}
