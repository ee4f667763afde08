// Package redis is a DocumentStore keeping each database in one hash plus a
// list recording insertion order.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/store"
	"github.com/redis/go-redis/v9"
)

var log = internal.GetLogger()

var _ models.DocumentStore = &DocumentStore{}

type DocumentStore struct {
	client *redis.Client
	prefix string
}

func NewDocumentStore(client *redis.Client, prefix string) *DocumentStore {
	return &DocumentStore{client: client, prefix: prefix}
}

func (s *DocumentStore) hashKey(db string) string {
	if s.prefix == "" {
		return db
	}
	return fmt.Sprintf("%s:%s", s.prefix, db)
}

func (s *DocumentStore) orderKey(db string) string {
	return s.hashKey(db) + ":order"
}

func (s *DocumentStore) OnStart(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Debugf("redis document store ready at %s", s.client.Options().Addr)
	return nil
}

func (s *DocumentStore) Shutdown(_ context.Context) error {
	return s.client.Close()
}

func (s *DocumentStore) Create(ctx context.Context, db string, doc models.Document) (string, error) {
	if err := store.CheckDatabase(db); err != nil {
		return "", err
	}
	prepared, id, err := store.Prepare(doc)
	if err != nil {
		return "", store.StoreErr("create", err)
	}
	b, err := json.Marshal(prepared)
	if err != nil {
		return "", store.StoreErr("create", err)
	}

	created, err := s.client.HSetNX(ctx, s.hashKey(db), id, b).Result()
	if err != nil {
		return "", store.StoreErr("create", err)
	}
	if !created {
		return "", models.NewConflictError(id)
	}
	if err := s.client.RPush(ctx, s.orderKey(db), id).Err(); err != nil {
		return "", store.StoreErr("create", err)
	}

	return id, nil
}

func (s *DocumentStore) Get(ctx context.Context, db string, id string) (models.Document, error) {
	if err := store.CheckDatabase(db); err != nil {
		return nil, err
	}
	val, err := s.client.HGet(ctx, s.hashKey(db), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.NotFound(db, id)
		}
		return nil, store.StoreErr("get", err)
	}
	doc, err := store.Decode([]byte(val))
	if err != nil {
		return nil, store.StoreErr("get", err)
	}
	return doc, nil
}

func (s *DocumentStore) All(ctx context.Context, db string) ([]models.Document, error) {
	if err := store.CheckDatabase(db); err != nil {
		return nil, err
	}
	ids, err := s.client.LRange(ctx, s.orderKey(db), 0, -1).Result()
	if err != nil {
		return nil, store.StoreErr("all", err)
	}
	docs := make([]models.Document, 0, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	values, err := s.client.HMGet(ctx, s.hashKey(db), ids...).Result()
	if err != nil {
		return nil, store.StoreErr("all", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			log.Warnf("order list of %s references missing document %s", db, ids[i])
			continue
		}
		doc, err := store.Decode([]byte(raw))
		if err != nil {
			return nil, store.StoreErr("all", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
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
