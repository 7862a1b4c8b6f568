package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/darila/internal/model"
)

// listingColumns are the columns scanned by scanListing, in order.
var listingColumns = []string{
	"i.id", "i.title", "i.category", "i.screenshot_ref", "i.owner_id", "i.visibility",
	"i.created_at", "i.updated_at", "u.username",
	"s.status", "s.status_since", "s.claimant_id", "s.claimant_contact", "s.claimed_at",
	"s.donor_confirmed", "s.donor_confirmed_at", "s.receiver_confirmed", "s.receiver_confirmed_at",
}

// NewItem holds the fields supplied when an item is listed.
type NewItem struct {
	OwnerID       int64
	Title         string
	Category      string
	ScreenshotRef string
}

// CreateItem inserts an item together with its initial available status row.
// Both rows are written in one transaction.
func CreateItem(ctx context.Context, db *sql.DB, in NewItem) (*model.Listing, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError("beginning transaction", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (title, category, screenshot_ref, owner_id, visibility, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Category, nullString(in.ScreenshotRef), in.OwnerID, model.VisibilityPublic, now, now,
	)
	if err != nil {
		return nil, dbError("creating item", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, dbError("getting item id", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO item_status (item_id, status, status_since) VALUES (?, ?, ?)`,
		id, string(model.StatusAvailable), now,
	)
	if err != nil {
		return nil, dbError("creating item status", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, dbError("committing item", err)
	}

	return GetListing(ctx, db, id)
}

// GetListing returns an item and its status. It returns model.ErrNotFound if
// the id is unknown.
func GetListing(ctx context.Context, db *sql.DB, id int64) (*model.Listing, error) {
	query, args, err := sq.Select(listingColumns...).
		From("items i").
		Join("item_status s ON s.item_id = i.id").
		LeftJoin("users u ON u.id = i.owner_id").
		Where(sq.Eq{"i.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item query: %w", err)
	}

	l, err := scanListing(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting item", err)
	}
	return l, nil
}

// ItemFilter narrows ListItems. Zero values mean "any".
type ItemFilter struct {
	Status   model.Status
	Category string
	OwnerID  int64

	// IncludeHidden lists hidden items of every owner. Otherwise hidden items
	// are only listed for VisibleTo, their owner.
	IncludeHidden bool
	VisibleTo     int64
}

// ListItems returns items and their statuses, newest first.
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Listing, error) {
	b := sq.Select(listingColumns...).
		From("items i").
		Join("item_status s ON s.item_id = i.id").
		LeftJoin("users u ON u.id = i.owner_id").
		OrderBy("i.id DESC")

	if f.Status != "" {
		b = b.Where(sq.Eq{"s.status": string(f.Status)})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"i.category": f.Category})
	}
	if f.OwnerID > 0 {
		b = b.Where(sq.Eq{"i.owner_id": f.OwnerID})
	}
	if !f.IncludeHidden {
		b = b.Where(sq.Or{
			sq.Eq{"i.visibility": model.VisibilityPublic},
			sq.Eq{"i.owner_id": f.VisibleTo},
		})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing items", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, dbError("scanning item", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// UpdateItem updates an item's title and category.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, title, category string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET title = ?, category = ?, updated_at = ? WHERE id = ?`,
		title, category, time.Now().UTC(), id,
	)
	if err != nil {
		return dbError("updating item", err)
	}
	return expectOneRow(result, id)
}

// SetVisibility shows or hides an item.
func SetVisibility(ctx context.Context, db *sql.DB, id int64, visibility string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET visibility = ?, updated_at = ? WHERE id = ?`,
		visibility, time.Now().UTC(), id,
	)
	if err != nil {
		return dbError("setting item visibility", err)
	}
	return expectOneRow(result, id)
}

// SetScreenshot stores screenshot data and points the item's reference at ref.
func SetScreenshot(ctx context.Context, db *sql.DB, id int64, data []byte, mime, ref string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET screenshot = ?, screenshot_mime = ?, screenshot_ref = ?, updated_at = ?
		 WHERE id = ?`,
		data, mime, ref, time.Now().UTC(), id,
	)
	if err != nil {
		return dbError("setting item screenshot", err)
	}
	return expectOneRow(result, id)
}

// GetScreenshot returns an item's stored screenshot and MIME type. A nil
// slice means the item has no stored screenshot.
func GetScreenshot(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT screenshot, screenshot_mime FROM items WHERE id = ?`, id,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, "", dbError("getting item screenshot", err)
	}
	return data, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*model.Listing, error) {
	var l model.Listing
	var screenshotRef, ownerName sql.NullString
	var status string
	if err := row.Scan(
		&l.Item.ID, &l.Item.Title, &l.Item.Category, &screenshotRef, &l.Item.OwnerID, &l.Item.Visibility,
		&l.Item.CreatedAt, &l.Item.UpdatedAt, &ownerName,
		&status, &l.Status.StatusSince, &l.Status.ClaimantID, &l.Status.ClaimantContact, &l.Status.ClaimedAt,
		&l.Status.DonorConfirmed, &l.Status.DonorConfirmedAt, &l.Status.ReceiverConfirmed, &l.Status.ReceiverConfirmedAt,
	); err != nil {
		return nil, err
	}
	l.Item.ScreenshotRef = screenshotRef.String
	l.Item.OwnerName = ownerName.String
	l.Status.ItemID = l.Item.ID
	l.Status.Status = model.Status(status)
	return &l, nil
}

func expectOneRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return dbError("checking affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
