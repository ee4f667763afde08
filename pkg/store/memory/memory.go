// Package memory is an in-process DocumentStore for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/store"
)

var _ models.DocumentStore = &DocumentStore{}

type database struct {
	docs  map[string]models.Document
	order []string
}

type DocumentStore struct {
	mu  sync.RWMutex
	dbs map[string]*database
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{dbs: map[string]*database{}}
}

func (s *DocumentStore) Create(_ context.Context, db string, doc models.Document) (string, error) {
	if err := store.CheckDatabase(db); err != nil {
		return "", err
	}
	prepared, id, err := store.Prepare(doc)
	if err != nil {
		return "", store.StoreErr("create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dbs[db]
	if !ok {
		d = &database{docs: map[string]models.Document{}}
		s.dbs[db] = d
	}
	if _, exists := d.docs[id]; exists {
		return "", models.NewConflictError(id)
	}
	d.docs[id] = prepared
	d.order = append(d.order, id)

	return id, nil
}

func (s *DocumentStore) Get(_ context.Context, db string, id string) (models.Document, error) {
	if err := store.CheckDatabase(db); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dbs[db]
	if !ok {
		return nil, store.NotFound(db, id)
	}
	doc, ok := d.docs[id]
	if !ok {
		return nil, store.NotFound(db, id)
	}
	return store.Normalize(doc)
}

func (s *DocumentStore) All(_ context.Context, db string) ([]models.Document, error) {
	if err := store.CheckDatabase(db); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Document{}
	d, ok := s.dbs[db]
	if !ok {
		return out, nil
	}
	for _, id := range d.order {
		doc, err := store.Normalize(d.docs[id])
		if err != nil {
			return nil, store.StoreErr("all", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *DocumentStore) Find(ctx context.Context, db string, selector map[string]any) ([]models.Document, error) {
	docs, err := s.All(ctx, db)
	if err != nil {
		return nil, err
	}
	found, err := store.Filter(docs, selector)
	if err != nil {
		return nil, store.StoreErr("find", err)
	}
	return found, nil
}

func (s *DocumentStore) OnStart(_ context.Context) error {
	return nil
}

func (s *DocumentStore) Shutdown(_ context.Context) error {
	return nil
}
