package store

import (
	"errors"
	"fmt"

	"github.com/lexalign/concordance/pkg/models"
)

var ErrEmptyDatabaseName = errors.New("database name is required")

// StoreErr wraps err as a *models.StoreError unless it already carries one of
// the store's typed errors.
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrConflict) ||
		errors.Is(err, models.ErrStore) {
		return err
	}
	return models.NewStoreError(op, err)
}

// CheckDatabase validates a database name.
func CheckDatabase(db string) error {
	if db == "" {
		return models.NewStoreError("validate", ErrEmptyDatabaseName)
	}
	return nil
}

// NotFound returns the error reported for a missing document.
func NotFound(db, id string) error {
	return models.NewNotFoundError(fmt.Sprintf("document %s in %s", id, db))
}
