package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	id, err := s.Create(ctx, "records", models.Document{"docA": "a.docx", "paragraphCount": 4})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	doc, err := s.Get(ctx, "records", id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID())
	assert.Equal(t, float64(4), doc["paragraphCount"])

	// returned documents are copies
	doc["docA"] = "changed"
	again, err := s.Get(ctx, "records", id)
	require.NoError(t, err)
	assert.Equal(t, "a.docx", again["docA"])
}

func TestCreateConflict(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	_, err := s.Create(ctx, "feedback", models.Document{"_id": "x"})
	require.NoError(t, err)

	_, err = s.Create(ctx, "feedback", models.Document{"_id": "x"})
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "x", conflict.ID)

	// same id in another database is fine
	_, err = s.Create(ctx, "records", models.Document{"_id": "x"})
	assert.NoError(t, err)
}

func TestGetMissing(t *testing.T) {
	s := NewDocumentStore()
	_, err := s.Get(context.Background(), "records", "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEmptyDatabaseName(t *testing.T) {
	s := NewDocumentStore()
	_, err := s.Create(context.Background(), "", models.Document{})
	assert.ErrorIs(t, err, models.ErrStore)
}

func TestAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	var ids []string
	for i := 0; i < 10; i++ {
		id, err := s.Create(ctx, "records", models.Document{"name": gofakeit.Word()})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := s.All(ctx, "records")
	require.NoError(t, err)
	require.Len(t, all, len(ids))
	for i, d := range all {
		assert.Equal(t, ids[i], d.ID())
	}

	empty, err := s.All(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	docs := []models.Document{
		{"feedbackId": "s1", "feedbacktype": "thumbsUp", "paragraphNumber": 1},
		{"feedbackId": "s1", "feedbacktype": "thumbsDown", "paragraphNumber": 2},
		{"feedbackId": "s2", "feedbacktype": "thumbsDown", "paragraphNumber": 1},
	}
	for _, d := range docs {
		_, err := s.Create(ctx, "feedback", d)
		require.NoError(t, err)
	}

	found, err := s.Find(ctx, "feedback", map[string]any{"feedbackId": "s1"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.Find(ctx, "feedback", map[string]any{"feedbackId": "s1", "paragraphNumber": 2})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "thumbsDown", found[0]["feedbacktype"])

	found, err = s.Find(ctx, "feedback", map[string]any{"feedbackId": "s3"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, "records", models.Document{"v": gofakeit.Sentence(3)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.All(ctx, "records")
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
