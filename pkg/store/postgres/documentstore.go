// Package postgres is a DocumentStore on a single jsonb table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

var _ models.DocumentStore = &DocumentStore{}

type DocumentStore struct {
	client *bun.DB
}

func NewDocumentStore(client *bun.DB) *DocumentStore {
	return &DocumentStore{client: client}
}

func (s *DocumentStore) OnStart(ctx context.Context) error {
	if err := checkServerVersion(ctx, s.client); err != nil {
		return err
	}
	return CreateSchema(ctx, s.client)
}

func (s *DocumentStore) Shutdown(_ context.Context) error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *DocumentStore) Create(ctx context.Context, db string, doc models.Document) (string, error) {
	if err := store.CheckDatabase(db); err != nil {
		return "", err
	}
	prepared, id, err := store.Prepare(doc)
	if err != nil {
		return "", store.StoreErr("create", err)
	}

	row := &DocumentSchema{DB: db, ID: id, Body: prepared}
	_, err = s.client.NewInsert().
		Model(row).
		ExcludeColumn("seq", "created_at").
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return "", models.NewConflictError(id)
		}
		return "", store.StoreErr("create", err)
	}

	return id, nil
}

func (s *DocumentStore) Get(ctx context.Context, db string, id string) (models.Document, error) {
	if err := store.CheckDatabase(db); err != nil {
		return nil, err
	}
	row := new(DocumentSchema)
	err := s.client.NewSelect().
		Model(row).
		Where("db = ?", db).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound(db, id)
		}
		return nil, store.StoreErr("get", err)
	}
	return store.Normalize(row.Body)
}

func (s *DocumentStore) All(ctx context.Context, db string) ([]models.Document, error) {
	return s.find(ctx, db, nil)
}

// Find uses jsonb containment, so nested selector values match as subsets.
func (s *DocumentStore) Find(ctx context.Context, db string, selector map[string]any) ([]models.Document, error) {
	return s.find(ctx, db, selector)
}

func (s *DocumentStore) find(ctx context.Context, db string, selector map[string]any) ([]models.Document, error) {
	if err := store.CheckDatabase(db); err != nil {
		return nil, err
	}
	var rows []DocumentSchema
	q := s.client.NewSelect().
		Model(&rows).
		Where("db = ?", db).
		Order("seq ASC")
	if len(selector) > 0 {
		b, err := json.Marshal(selector)
		if err != nil {
			return nil, store.StoreErr("find", err)
		}
		q = applyContainment(q, b)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, store.StoreErr("find", err)
	}

	docs := make([]models.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := store.Normalize(r.Body)
		if err != nil {
			return nil, store.StoreErr("find", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func applyContainment(q *bun.SelectQuery, selector []byte) *bun.SelectQuery {
	return q.Where("body @> ?::jsonb", string(selector))
}
