package models

import "context"

// Document is a schemaless JSON document. The "_id" field holds its key.
type Document map[string]any

const DocumentIDField = "_id"

// ID returns the document key or "" when unset.
func (d Document) ID() string {
	if id, ok := d[DocumentIDField].(string); ok {
		return id
	}
	return ""
}

// DocumentStore persists JSON documents in named databases.
type DocumentStore interface {
	// Create stores doc in db and returns its id. An id is generated when doc
	// has none. A duplicate id yields a ConflictError.
	Create(ctx context.Context, db string, doc Document) (string, error)
	// Get retrieves a document by id. A missing document yields a NotFoundError.
	Get(ctx context.Context, db string, id string) (Document, error)
	// All returns every document in db.
	All(ctx context.Context, db string) ([]Document, error)
	// Find returns documents whose fields equal every field in selector.
	Find(ctx context.Context, db string, selector map[string]any) ([]Document, error)
	// OnStart is called when the application starts.
	OnStart(ctx context.Context) error
	// Shutdown releases any resources held by the store.
	Shutdown(ctx context.Context) error
}
