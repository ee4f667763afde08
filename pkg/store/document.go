// Package store holds helpers shared by the DocumentStore implementations in
// its subpackages.
package store

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/lexalign/concordance/pkg/models"
)

// Prepare returns a detached copy of doc with an "_id" assigned. The copy has
// gone through JSON, so values have the types a decoded document has.
func Prepare(doc models.Document) (models.Document, string, error) {
	out, err := Normalize(doc)
	if err != nil {
		return nil, "", err
	}
	if out == nil {
		out = models.Document{}
	}
	id := out.ID()
	if id == "" {
		id = uuid.NewString()
		out[models.DocumentIDField] = id
	}
	return out, id, nil
}

// Normalize round-trips a document through JSON.
func Normalize(doc models.Document) (models.Document, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not JSON serializable: %w", err)
	}
	return Decode(b)
}

// Decode parses a stored JSON document.
func Decode(b []byte) (models.Document, error) {
	var out models.Document
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("stored document is not a JSON object: %w", err)
	}
	return out, nil
}

// Matches reports whether doc has every field of selector with an equal value.
// The selector must already be normalized.
func Matches(doc models.Document, selector models.Document) bool {
	for k, want := range selector {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Filter returns the documents matching selector, keeping their order.
func Filter(docs []models.Document, selector map[string]any) ([]models.Document, error) {
	sel, err := Normalize(selector)
	if err != nil {
		return nil, err
	}
	out := []models.Document{}
	for _, d := range docs {
		if Matches(d, sel) {
			out = append(out, d)
		}
	}
	return out, nil
}
