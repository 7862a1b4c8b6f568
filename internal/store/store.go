package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/darila/internal/model"
)

// dbError marks a failed database operation as a persistence failure while
// keeping the driver error reachable through errors.Is and errors.As.
func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrPersistence, err)
}

// Items binds the item functions to a database for callers that take the
// store as a dependency.
type Items struct {
	DB *sql.DB
}

// Create inserts an item with status available.
func (s Items) Create(ctx context.Context, in NewItem) (*model.Listing, error) {
	return CreateItem(ctx, s.DB, in)
}

// Get returns an item and its status.
func (s Items) Get(ctx context.Context, id int64) (*model.Listing, error) {
	return GetListing(ctx, s.DB, id)
}

// Update changes the editable fields of an item.
func (s Items) Update(ctx context.Context, id int64, title, category string) error {
	return UpdateItem(ctx, s.DB, id, title, category)
}

// SetVisibility hides or shows an item.
func (s Items) SetVisibility(ctx context.Context, id int64, visibility string) error {
	return SetVisibility(ctx, s.DB, id, visibility)
}

// SetScreenshot stores a screenshot and its served reference.
func (s Items) SetScreenshot(ctx context.Context, id int64, data []byte, mime, ref string) error {
	return SetScreenshot(ctx, s.DB, id, data, mime, ref)
}

// CompareAndSetStatus applies mutate if the item still matches expect.
func (s Items) CompareAndSetStatus(ctx context.Context, id int64, expect Expect, mutate Mutation) (*model.ItemStatus, bool, error) {
	return CompareAndSetStatus(ctx, s.DB, id, expect, mutate)
}

// AuditLog binds AppendAudit to a database.
type AuditLog struct {
	DB *sql.DB
}

// Log appends one audit entry.
func (a AuditLog) Log(ctx context.Context, actorID *int64, targetType string, targetID int64, action string) error {
	_, err := AppendAudit(ctx, a.DB, actorID, targetType, targetID, action)
	return err
}
