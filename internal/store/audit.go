package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/erazemk/darila/internal/model"
)

// AppendAudit appends an entry to the audit log. The table rejects updates
// and deletes.
func AppendAudit(ctx context.Context, db *sql.DB, actorID *int64, targetType string, targetID int64, action string) (*model.AuditEntry, error) {
	e := &model.AuditEntry{
		UUID:       uuid.NewString(),
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Action:     action,
		CreatedAt:  time.Now().UTC(),
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (uuid, actor_id, target_type, target_id, action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UUID, e.ActorID, e.TargetType, e.TargetID, e.Action, e.CreatedAt,
	)
	if err != nil {
		return nil, dbError("appending audit entry", err)
	}

	e.ID, err = result.LastInsertId()
	if err != nil {
		return nil, dbError("getting audit entry id", err)
	}
	return e, nil
}

// AuditFilter narrows ListAudit. Zero values mean "any".
type AuditFilter struct {
	TargetType string
	TargetID   int64
	Action     string
	Limit      uint64
}

// ListAudit returns audit entries in append order.
func ListAudit(ctx context.Context, db *sql.DB, f AuditFilter) ([]model.AuditEntry, error) {
	b := sq.Select("id", "uuid", "actor_id", "target_type", "target_id", "action", "created_at").
		From("audit_log").
		OrderBy("id")

	if f.TargetType != "" {
		b = b.Where(sq.Eq{"target_type": f.TargetType})
	}
	if f.TargetID > 0 {
		b = b.Where(sq.Eq{"target_id": f.TargetID})
	}
	if f.Action != "" {
		b = b.Where(sq.Eq{"action": f.Action})
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building audit query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing audit entries", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.UUID, &e.ActorID, &e.TargetType, &e.TargetID, &e.Action, &e.CreatedAt); err != nil {
			return nil, dbError("scanning audit entry", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
