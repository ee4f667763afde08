package redis

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DocumentStore {
	addr := testutils.GetRedisAddr()
	if addr == "" {
		t.Skip(testutils.RedisAddrEnv + " not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	s := NewDocumentStore(client, "test-"+uuid.NewString())
	require.NoError(t, s.OnStart(context.Background()))
	t.Cleanup(func() {
		ctx := context.Background()
		client.Del(ctx, s.hashKey("records"), s.orderKey("records"))
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestKeys(t *testing.T) {
	s := NewDocumentStore(nil, "concordance")
	assert.Equal(t, "concordance:records", s.hashKey("records"))
	assert.Equal(t, "concordance:records:order", s.orderKey("records"))

	bare := NewDocumentStore(nil, "")
	assert.Equal(t, "feedback", bare.hashKey("feedback"))
}

func TestDocumentStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, "records", models.Document{"docA": "a.docx", "n": 1})
	require.NoError(t, err)
	_, err = s.Create(ctx, "records", models.Document{"_id": "fixed", "docA": "b.docx"})
	require.NoError(t, err)

	_, err = s.Create(ctx, "records", models.Document{"_id": "fixed"})
	assert.ErrorIs(t, err, models.ErrConflict)

	doc, err := s.Get(ctx, "records", first)
	require.NoError(t, err)
	assert.Equal(t, float64(1), doc["n"])

	_, err = s.Get(ctx, "records", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	all, err := s.All(ctx, "records")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0].ID())
	assert.Equal(t, "fixed", all[1].ID())

	found, err := s.Find(ctx, "records", map[string]any{"docA": "b.docx"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "fixed", found[0].ID())
}
