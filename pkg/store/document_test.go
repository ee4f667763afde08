package store

import (
	"testing"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	in := models.Document{"n": 3}
	out, id, err := Prepare(in)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, out.ID())
	assert.Equal(t, float64(3), out["n"])
	_, touched := in[models.DocumentIDField]
	assert.False(t, touched)

	out, id, err = Prepare(models.Document{"_id": "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", id)
	assert.Equal(t, "given", out.ID())

	out, _, err = Prepare(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID())

	_, _, err = Prepare(models.Document{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	docs := []models.Document{
		{"a": float64(1), "b": "x"},
		{"a": float64(2), "b": "x"},
		{"a": float64(1), "b": "y", "nested": map[string]any{"k": "v"}},
	}

	got, err := Filter(docs, map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Filter(docs, map[string]any{"nested": map[string]any{"k": "v"}})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = Filter(docs, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = Filter(docs, map[string]any{"missing": nil})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreErr(t *testing.T) {
	assert.Nil(t, StoreErr("get", nil))

	nf := NotFound("records", "x")
	assert.Same(t, nf, StoreErr("get", nf))

	wrapped := StoreErr("get", assert.AnError)
	var se *models.StoreError
	require.ErrorAs(t, wrapped, &se)
	assert.Equal(t, "get", se.Op)
	assert.ErrorIs(t, wrapped, assert.AnError)
}
