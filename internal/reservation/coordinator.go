// Package reservation implements the user-facing item workflows: listing an
// item, claiming it, and confirming the handover from both sides.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erazemk/darila/internal/imaging"
	"github.com/erazemk/darila/internal/lifecycle"
	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/store"
)

// Field limits.
const (
	MaxTitleLength    = 200
	MaxCategoryLength = 64
	MaxContactLength  = 200
)

// Catalog is the item store as seen by the coordinator.
type Catalog interface {
	Create(ctx context.Context, in store.NewItem) (*model.Listing, error)
	Get(ctx context.Context, id int64) (*model.Listing, error)
	Update(ctx context.Context, id int64, title, category string) error
	SetVisibility(ctx context.Context, id int64, visibility string) error
	SetScreenshot(ctx context.Context, id int64, data []byte, mime, ref string) error
}

// Coordinator composes lifecycle changes into claims and handovers.
type Coordinator struct {
	catalog       Catalog
	engine        *lifecycle.Engine
	maxScreenshot int64
	now           func() time.Time
}

// New creates a coordinator. maxScreenshot bounds uploaded screenshots in
// bytes.
func New(catalog Catalog, engine *lifecycle.Engine, maxScreenshot int64) *Coordinator {
	return &Coordinator{
		catalog:       catalog,
		engine:        engine,
		maxScreenshot: maxScreenshot,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Policy returns the claim policy in effect.
func (c *Coordinator) Policy() lifecycle.Policy {
	return c.engine.Policy()
}

// SubmitItem lists a new item owned by owner. The item starts available.
func (c *Coordinator) SubmitItem(ctx context.Context, owner model.Actor, title, category, screenshotRef string) (*model.Listing, error) {
	if owner.ID == 0 {
		return nil, fmt.Errorf("%w: items need an owner", model.ErrForbidden)
	}
	title, category, err := cleanFields(title, category)
	if err != nil {
		return nil, err
	}

	l, err := c.catalog.Create(ctx, store.NewItem{
		OwnerID:       owner.ID,
		Title:         title,
		Category:      category,
		ScreenshotRef: strings.TrimSpace(screenshotRef),
	})
	if err != nil {
		return nil, err
	}

	c.engine.Record(ctx, owner, l.Item.ID, "item_created")
	slog.Info("item submitted", "item", l.Item.ID, "owner", owner.ID, "category", category)
	return l, nil
}

// Claim asks for an available item on behalf of claimant. In the direct
// policy the first claim reserves the item; in the moderated policy it
// records a request the owner must approve. Losing the race to another
// claim returns model.ErrItemNotAvailable.
func (c *Coordinator) Claim(ctx context.Context, itemID int64, claimant model.Actor, contact string) (*model.ItemStatus, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, fmt.Errorf("%w: contact is required", model.ErrInvalidInput)
	}
	if utf8.RuneCountInString(contact) > MaxContactLength {
		return nil, fmt.Errorf("%w: contact longer than %d characters", model.ErrInvalidInput, MaxContactLength)
	}

	l, err := c.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if claimant.ID == 0 || l.Item.OwnerID == claimant.ID {
		return nil, fmt.Errorf("%w: owners cannot claim their own items", model.ErrForbidden)
	}
	if l.Item.Visibility != model.VisibilityPublic || l.Status.Status != model.StatusAvailable {
		return nil, fmt.Errorf("%w: item %d is %s", model.ErrItemNotAvailable, itemID, l.Status.Status)
	}

	target := c.engine.Policy().ClaimTarget()
	claimantID := claimant.ID
	st, err := c.engine.Apply(ctx, lifecycle.Change{
		ItemID:        itemID,
		From:          model.StatusAvailable,
		RequirePublic: true,
		Actor:         claimant,
		Mutate: func(st *model.ItemStatus) error {
			now := c.now()
			st.Status = target
			st.ClaimantID = &claimantID
			st.ClaimantContact = &contact
			st.ClaimedAt = &now
			return nil
		},
	})
	if errors.Is(err, model.ErrStaleState) {
		return nil, fmt.Errorf("%w: item %d was claimed or hidden first", model.ErrItemNotAvailable, itemID)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("item claimed", "item", itemID, "claimant", claimant.ID, "status", st.Status)
	return st, nil
}

// ApproveClaim accepts a pending request under the moderated policy.
func (c *Coordinator) ApproveClaim(ctx context.Context, itemID int64, actor model.Actor) (*model.ItemStatus, error) {
	if c.engine.Policy() != lifecycle.PolicyModerated {
		return nil, fmt.Errorf("%w: claims are not moderated", model.ErrInvalidTransition)
	}
	return c.engine.ApplyTransition(ctx, itemID, model.StatusReserved, actor)
}

// FinalizeHandover closes a given item. The owner, the claimant, or an
// admin may finalize.
func (c *Coordinator) FinalizeHandover(ctx context.Context, itemID int64, actor model.Actor) (*model.ItemStatus, error) {
	st, err := c.engine.ApplyTransition(ctx, itemID, model.StatusConfirmed, actor)
	if err != nil {
		return nil, err
	}
	slog.Info("handover finalized", "item", itemID, "actor", actor.ID)
	return st, nil
}

// AdminSetStatus moves an item to target. It covers duplicate flagging and
// moderation overrides and is open to admins only.
func (c *Coordinator) AdminSetStatus(ctx context.Context, itemID int64, target model.Status, admin model.Actor) (*model.ItemStatus, error) {
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", model.ErrForbidden)
	}
	return c.engine.ApplyTransition(ctx, itemID, target, admin)
}

// UpdateItem changes the title and category of an item.
func (c *Coordinator) UpdateItem(ctx context.Context, itemID int64, title, category string, actor model.Actor) (*model.Listing, error) {
	title, category, err := cleanFields(title, category)
	if err != nil {
		return nil, err
	}
	if _, err := c.managed(ctx, itemID, actor); err != nil {
		return nil, err
	}

	if err := c.catalog.Update(ctx, itemID, title, category); err != nil {
		return nil, err
	}
	c.engine.Record(ctx, actor, itemID, "item_updated")
	return c.catalog.Get(ctx, itemID)
}

// SetVisibility hides or shows an item. Setting the current visibility
// again changes nothing and records nothing.
func (c *Coordinator) SetVisibility(ctx context.Context, itemID int64, visibility string, actor model.Actor) (*model.Listing, error) {
	if !model.ValidVisibility(visibility) {
		return nil, fmt.Errorf("%w: visibility must be %q or %q", model.ErrInvalidInput, model.VisibilityPublic, model.VisibilityHidden)
	}
	l, err := c.managed(ctx, itemID, actor)
	if err != nil {
		return nil, err
	}
	if l.Item.Visibility == visibility {
		return l, nil
	}

	if err := c.catalog.SetVisibility(ctx, itemID, visibility); err != nil {
		return nil, err
	}
	action := "item_shown"
	if visibility == model.VisibilityHidden {
		action = "item_hidden"
	}
	c.engine.Record(ctx, actor, itemID, action)
	return c.catalog.Get(ctx, itemID)
}

// UploadScreenshot normalizes an image and stores it on the item. The
// item's screenshot reference then points at the served copy.
func (c *Coordinator) UploadScreenshot(ctx context.Context, itemID int64, r io.Reader, actor model.Actor) (*model.Listing, error) {
	if _, err := c.managed(ctx, itemID, actor); err != nil {
		return nil, err
	}

	shot, err := imaging.Screenshot(r, c.maxScreenshot)
	if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooLarge) {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	if err != nil {
		return nil, err
	}

	if err := c.catalog.SetScreenshot(ctx, itemID, shot.Data, shot.MIME, ScreenshotPath(itemID)); err != nil {
		return nil, err
	}
	c.engine.Record(ctx, actor, itemID, "screenshot_uploaded")
	return c.catalog.Get(ctx, itemID)
}

// ScreenshotPath is the URL a stored screenshot is served from.
func ScreenshotPath(itemID int64) string {
	return fmt.Sprintf("/api/items/%d/screenshot", itemID)
}

// managed loads an item and checks that actor may edit it.
func (c *Coordinator) managed(ctx context.Context, itemID int64, actor model.Actor) (*model.Listing, error) {
	l, err := c.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !l.ManagedBy(actor) {
		return nil, fmt.Errorf("%w: only the owner or an admin may edit item %d", model.ErrForbidden, itemID)
	}
	return l, nil
}

func cleanFields(title, category string) (string, string, error) {
	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	switch {
	case title == "":
		return "", "", fmt.Errorf("%w: title is required", model.ErrInvalidInput)
	case category == "":
		return "", "", fmt.Errorf("%w: category is required", model.ErrInvalidInput)
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return "", "", fmt.Errorf("%w: title longer than %d characters", model.ErrInvalidInput, MaxTitleLength)
	case utf8.RuneCountInString(category) > MaxCategoryLength:
		return "", "", fmt.Errorf("%w: category longer than %d characters", model.ErrInvalidInput, MaxCategoryLength)
	}
	return title, category, nil
}
