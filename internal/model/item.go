package model

import "time"

// Item is a donated listing. Only Title and Category change after creation.
type Item struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	ScreenshotRef string    `json:"screenshot_ref,omitempty"`
	OwnerID       int64     `json:"owner_id"`
	Visibility    string    `json:"visibility"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	OwnerName string `json:"owner_name,omitempty"`
}

// Item visibility.
const (
	VisibilityPublic = "public"
	VisibilityHidden = "hidden"
)

// ValidVisibility reports whether v is a known visibility value.
func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityHidden
}

// Listing is an item together with its current status, as returned by the
// read paths.
type Listing struct {
	Item   Item       `json:"item"`
	Status ItemStatus `json:"status"`
}

// VisibleTo reports whether a may see the listing. Hidden items are shown
// only to their owner and to admins.
func (l *Listing) VisibleTo(a Actor) bool {
	return l.Item.Visibility != VisibilityHidden || a.IsAdmin() || a.ID == l.Item.OwnerID
}

// ManagedBy reports whether a may edit the listing.
func (l *Listing) ManagedBy(a Actor) bool {
	return a.IsAdmin() || (a.ID != 0 && a.ID == l.Item.OwnerID)
}
