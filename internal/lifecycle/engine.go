// Package lifecycle owns the item status transition table. It is the only
// writer of item status records.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/darila/internal/metrics"
	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/store"
)

// ItemStore is the part of the item store the engine writes through.
type ItemStore interface {
	Get(ctx context.Context, id int64) (*model.Listing, error)
	CompareAndSetStatus(ctx context.Context, id int64, expect store.Expect, mutate store.Mutation) (*model.ItemStatus, bool, error)
}

// AuditLog receives one entry per applied change.
type AuditLog interface {
	Log(ctx context.Context, actorID *int64, targetType string, targetID int64, action string) error
}

// Engine validates and applies status changes. Writes to one item are
// serialized so its audit entries land in the order the writes succeeded.
type Engine struct {
	items   ItemStore
	audit   AuditLog
	policy  Policy
	metrics *metrics.Metrics
	locks   *lockset
}

// New creates an engine for the given claim policy.
func New(items ItemStore, audit AuditLog, policy Policy, m *metrics.Metrics) *Engine {
	return &Engine{
		items:   items,
		audit:   audit,
		policy:  policy,
		metrics: m,
		locks:   newLockset(),
	}
}

// Policy returns the claim policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Change is a compare-and-set request against one item.
type Change struct {
	ItemID int64
	// From is the status the caller observed. The change is applied only
	// if the item is still in it.
	From model.Status
	// RequirePublic also requires the item to still be publicly visible
	// when the write happens.
	RequirePublic bool
	Actor         model.Actor
	// Action is recorded in the audit log in addition to any status
	// transition. It may be empty.
	Action string
	// Mutate edits the freshly read record. A status change it makes must
	// be a row of the transition table.
	Mutate store.Mutation
}

// Apply runs ch as one compare-and-set. When the item has left ch.From in
// the meantime, or was hidden while ch.RequirePublic is set, it returns
// model.ErrStaleState and changes nothing. Errors
// returned by ch.Mutate are passed through unchanged.
func (e *Engine) Apply(ctx context.Context, ch Change) (*model.ItemStatus, error) {
	unlock := e.locks.lock(ch.ItemID)
	defer unlock()

	from := ch.From
	expect := store.Expect{Status: from, Public: ch.RequirePublic}
	next, applied, err := e.items.CompareAndSetStatus(ctx, ch.ItemID, expect, func(st *model.ItemStatus) error {
		if err := ch.Mutate(st); err != nil {
			return err
		}
		if st.Status != from && !e.policy.Allowed(from, st.Status) {
			return fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, from, st.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		e.metrics.StaleWrites.Inc()
		if next.Status == from {
			return nil, fmt.Errorf("%w: item %d is no longer public", model.ErrStaleState, ch.ItemID)
		}
		return nil, fmt.Errorf("%w: item %d is %s, expected %s", model.ErrStaleState, ch.ItemID, next.Status, from)
	}

	if ch.Action != "" {
		e.record(ctx, ch.Actor, ch.ItemID, ch.Action)
	}
	if next.Status != from {
		e.metrics.Transitions.WithLabelValues(string(from), string(next.Status)).Inc()
		e.record(ctx, ch.Actor, ch.ItemID, model.TransitionAction(from, next.Status))
		slog.Info("item status changed", "item", ch.ItemID, "from", from, "to", next.Status, "actor", ch.Actor.ID)
	}
	return next, nil
}

// ApplyTransition moves an item to target on behalf of actor.
//
// Only admins may flag an item as a duplicate, and that is checked before
// the item is even looked up. Claims are not made here; they carry claimant
// data and go through the reservation coordinator.
func (e *Engine) ApplyTransition(ctx context.Context, itemID int64, target model.Status, actor model.Actor) (*model.ItemStatus, error) {
	if target == model.StatusFlaggedDupe && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may flag items", model.ErrForbidden)
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, target)
	}

	l, err := e.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	from := l.Status.Status
	if !e.policy.Allowed(from, target) {
		return nil, fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, from, target)
	}
	if target.HasClaimant() && !from.HasClaimant() {
		return nil, fmt.Errorf("%w: %s to %s needs a claim", model.ErrInvalidTransition, from, target)
	}
	if err := permitted(l, from, target, actor); err != nil {
		return nil, err
	}

	return e.Apply(ctx, Change{
		ItemID: itemID,
		From:   from,
		Actor:  actor,
		Mutate: func(st *model.ItemStatus) error {
			st.Status = target
			if target == model.StatusFlaggedDupe {
				st.ClearClaim()
			}
			return nil
		},
	})
}

// permitted checks who may request a direct transition.
func permitted(l *model.Listing, from, to model.Status, actor model.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	owner := l.Item.OwnerID == actor.ID
	switch {
	case from == model.StatusRequested && to == model.StatusReserved:
		if owner {
			return nil
		}
	case from == model.StatusGiven && to == model.StatusConfirmed:
		if owner || l.Status.IsClaimant(actor.ID) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", model.ErrForbidden, from, to)
}

// Record appends an audit entry for a change made outside Apply, such as
// creating or editing an item. Failures are logged and counted.
func (e *Engine) Record(ctx context.Context, actor model.Actor, itemID int64, action string) {
	unlock := e.locks.lock(itemID)
	defer unlock()
	e.record(ctx, actor, itemID, action)
}

func (e *Engine) record(ctx context.Context, actor model.Actor, itemID int64, action string) {
	err := e.audit.Log(ctx, actor.AuditID(), model.TargetItem, itemID, action)
	if err == nil {
		return
	}
	e.metrics.AuditFailures.Inc()
	slog.Warn("audit entry not written", "item", itemID, "action", action, "error", err)
}

// IsRejection reports whether err is a domain outcome rather than a fault.
func IsRejection(err error) bool {
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInvalidTransition) ||
		errors.Is(err, model.ErrForbidden) ||
		errors.Is(err, model.ErrStaleState) ||
		errors.Is(err, model.ErrItemNotAvailable) ||
		errors.Is(err, model.ErrInvalidInput)
}
