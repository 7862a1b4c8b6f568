package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/darila/internal/model"
)

// Mutation edits a status record in place. It sees the row as read inside
// the compare-and-set transaction. Returning an error aborts without writing.
type Mutation func(st *model.ItemStatus) error

// Expect is what a compare-and-set requires of an item before it mutates.
type Expect struct {
	Status model.Status
	// Public additionally requires the item to be publicly visible.
	Public bool
}

// CompareAndSetStatus applies mutate to the status row of itemID if, and only
// if, the item still matches expect. The reads, the mutation, and the write
// happen in one IMMEDIATE transaction, and the UPDATE is itself guarded on
// expect.
//
// It returns the resulting record and true when the mutation was applied, or
// the observed record and false when the item no longer matched. Records
// that would break the status invariants are rejected with
// model.ErrInvalidTransition.
func CompareAndSetStatus(ctx context.Context, db *sql.DB, itemID int64, expect Expect, mutate Mutation) (*model.ItemStatus, bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, dbError("beginning transaction", err)
	}
	defer tx.Rollback()

	cur, err := getStatus(ctx, tx, itemID)
	if err != nil {
		return nil, false, err
	}
	if cur.Status != expect.Status {
		return cur, false, nil
	}
	if expect.Public {
		var visibility string
		err := tx.QueryRowContext(ctx, `SELECT visibility FROM items WHERE id = ?`, itemID).Scan(&visibility)
		if err != nil {
			return nil, false, dbError("getting item visibility", err)
		}
		if visibility != model.VisibilityPublic {
			return cur, false, nil
		}
	}

	next := *cur
	if err := mutate(&next); err != nil {
		return nil, false, err
	}
	if next.Status != cur.Status {
		next.StatusSince = time.Now().UTC()
	}
	if err := next.Check(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", model.ErrInvalidTransition, err)
	}

	requirePublic := 0
	if expect.Public {
		requirePublic = 1
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE item_status
		 SET status = ?, status_since = ?, claimant_id = ?, claimant_contact = ?, claimed_at = ?,
		     donor_confirmed = ?, donor_confirmed_at = ?, receiver_confirmed = ?, receiver_confirmed_at = ?
		 WHERE item_id = ? AND status = ?
		   AND (? = 0 OR EXISTS (SELECT 1 FROM items WHERE items.id = item_status.item_id AND items.visibility = ?))`,
		string(next.Status), next.StatusSince, next.ClaimantID, next.ClaimantContact, next.ClaimedAt,
		next.DonorConfirmed, next.DonorConfirmedAt, next.ReceiverConfirmed, next.ReceiverConfirmedAt,
		itemID, string(expect.Status), requirePublic, model.VisibilityPublic,
	)
	if err != nil {
		return nil, false, dbError("updating item status", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, dbError("checking affected rows", err)
	}
	if n != 1 {
		return cur, false, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, false, dbError("committing item status", err)
	}
	return &next, true, nil
}

// GetStatus returns the status row of an item.
func GetStatus(ctx context.Context, db *sql.DB, itemID int64) (*model.ItemStatus, error) {
	return getStatus(ctx, db, itemID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getStatus(ctx context.Context, q queryRower, itemID int64) (*model.ItemStatus, error) {
	st := &model.ItemStatus{ItemID: itemID}
	var status string
	err := q.QueryRowContext(ctx,
		`SELECT status, status_since, claimant_id, claimant_contact, claimed_at,
		        donor_confirmed, donor_confirmed_at, receiver_confirmed, receiver_confirmed_at
		 FROM item_status WHERE item_id = ?`, itemID,
	).Scan(&status, &st.StatusSince, &st.ClaimantID, &st.ClaimantContact, &st.ClaimedAt,
		&st.DonorConfirmed, &st.DonorConfirmedAt, &st.ReceiverConfirmed, &st.ReceiverConfirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting item status", err)
	}
	st.Status = model.Status(status)
	return st, nil
}
