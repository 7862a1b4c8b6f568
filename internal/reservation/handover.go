package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/darila/internal/lifecycle"
	"github.com/erazemk/darila/internal/model"
)

// side is one party of a handover.
type side int

const (
	donor side = iota
	receiver
)

func (s side) String() string {
	if s == donor {
		return "donor"
	}
	return "receiver"
}

// is reports whether userID is this party for the item.
func (s side) is(l *model.Listing, st *model.ItemStatus, userID int64) bool {
	if s == donor {
		return l.Item.OwnerID == userID
	}
	return st.IsClaimant(userID)
}

func (s side) confirmed(st *model.ItemStatus) bool {
	if s == donor {
		return st.DonorConfirmed
	}
	return st.ReceiverConfirmed
}

func (s side) other() side {
	if s == donor {
		return receiver
	}
	return donor
}

// mark sets the party's flag. A timestamp already present is kept.
func (s side) mark(st *model.ItemStatus, now time.Time) {
	flag, at := &st.DonorConfirmed, &st.DonorConfirmedAt
	if s == receiver {
		flag, at = &st.ReceiverConfirmed, &st.ReceiverConfirmedAt
	}
	*flag = true
	if *at == nil {
		*at = &now
	}
}

var errAlreadyConfirmed = errors.New("already confirmed")

// ConfirmDonor records that the owner handed the item over.
func (c *Coordinator) ConfirmDonor(ctx context.Context, itemID int64, actor model.Actor) (*model.ItemStatus, error) {
	return c.confirm(ctx, itemID, actor, donor)
}

// ConfirmReceiver records that the claimant received the item.
func (c *Coordinator) ConfirmReceiver(ctx context.Context, itemID int64, actor model.Actor) (*model.ItemStatus, error) {
	return c.confirm(ctx, itemID, actor, receiver)
}

// confirm sets one party's flag. The write that finds both flags set also
// moves the item from reserved to given, so the transition happens once no
// matter how the two confirmations interleave. Repeating a confirmation
// returns the current record unchanged.
func (c *Coordinator) confirm(ctx context.Context, itemID int64, actor model.Actor, s side) (*model.ItemStatus, error) {
	l, err := c.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if actor.ID == 0 || !s.is(l, &l.Status, actor.ID) {
		return nil, fmt.Errorf("%w: only the %s may confirm this side of item %d", model.ErrForbidden, s, itemID)
	}
	if repeatConfirmation(&l.Status, s) {
		return &l.Status, nil
	}
	if l.Status.Status != model.StatusReserved {
		return nil, fmt.Errorf("%w: item %d is %s, not reserved", model.ErrInvalidTransition, itemID, l.Status.Status)
	}

	st, err := c.engine.Apply(ctx, lifecycle.Change{
		ItemID: itemID,
		From:   model.StatusReserved,
		Actor:  actor,
		Action: s.String() + "_confirmed",
		Mutate: func(st *model.ItemStatus) error {
			if !s.is(l, st, actor.ID) {
				return fmt.Errorf("%w: claimant changed", model.ErrForbidden)
			}
			if s.confirmed(st) {
				return errAlreadyConfirmed
			}
			s.mark(st, c.now())
			if s.other().confirmed(st) {
				st.Status = model.StatusGiven
			}
			return nil
		},
	})
	if errors.Is(err, errAlreadyConfirmed) || errors.Is(err, model.ErrStaleState) {
		// Another write got there first; a repeat is still a no-op.
		cur, gerr := c.catalog.Get(ctx, itemID)
		if gerr != nil {
			return nil, gerr
		}
		if repeatConfirmation(&cur.Status, s) {
			return &cur.Status, nil
		}
		if errors.Is(err, errAlreadyConfirmed) {
			return nil, fmt.Errorf("%w: item %d changed during confirmation", model.ErrStaleState, itemID)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	slog.Info("handover confirmed", "item", itemID, "side", s.String(), "actor", actor.ID, "status", st.Status)
	return st, nil
}

func repeatConfirmation(st *model.ItemStatus, s side) bool {
	return s.confirmed(st) && st.Status.AllowsConfirmation()
}
