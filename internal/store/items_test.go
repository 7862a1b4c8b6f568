package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/darila/internal/db"
	"github.com/erazemk/darila/internal/model"
)

func createTestUser(t *testing.T, database *sql.DB, name string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, name, "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")

	l, err := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Iron Sword", Category: "weapon", ScreenshotRef: "https://img.example/sword.png"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if l.Item.Title != "Iron Sword" {
		t.Errorf("expected title 'Iron Sword', got %q", l.Item.Title)
	}
	if l.Item.OwnerName != "alice" {
		t.Errorf("expected owner name 'alice', got %q", l.Item.OwnerName)
	}
	if l.Item.Visibility != model.VisibilityPublic {
		t.Errorf("expected visibility 'public', got %q", l.Item.Visibility)
	}
	if l.Status.Status != model.StatusAvailable {
		t.Errorf("expected status 'available', got %q", l.Status.Status)
	}
	if l.Status.ClaimantID != nil {
		t.Error("expected no claimant on a new item")
	}
	if l.Status.StatusSince.IsZero() {
		t.Error("expected status_since to be set")
	}
}

func TestCreateItemIsAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Unknown owner violates the foreign key, so neither row may survive.
	_, err := CreateItem(ctx, database, NewItem{OwnerID: 999, Title: "Ghost", Category: "misc"})
	if err == nil {
		t.Fatal("expected error for unknown owner")
	}

	var items, statuses int
	database.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&items)
	database.QueryRow(`SELECT COUNT(*) FROM item_status`).Scan(&statuses)
	if items != 0 || statuses != 0 {
		t.Errorf("expected no rows after failed create, got %d items and %d statuses", items, statuses)
	}
}

func TestGetListingNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetListing(context.Background(), database, 42)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice")
	bob := createTestUser(t, database, "bob")

	CreateItem(ctx, database, NewItem{OwnerID: alice.ID, Title: "Sword", Category: "weapon"})
	shield, _ := CreateItem(ctx, database, NewItem{OwnerID: alice.ID, Title: "Shield", Category: "armor"})
	CreateItem(ctx, database, NewItem{OwnerID: bob.ID, Title: "Bow", Category: "weapon"})
	SetVisibility(ctx, database, shield.Item.ID, model.VisibilityHidden)

	all, _ := ListItems(ctx, database, ItemFilter{IncludeHidden: true})
	if len(all) != 3 {
		t.Errorf("expected 3 items including hidden, got %d", len(all))
	}
	if len(all) > 0 && all[0].Item.Title != "Bow" {
		t.Errorf("expected newest item first, got %q", all[0].Item.Title)
	}

	public, _ := ListItems(ctx, database, ItemFilter{})
	if len(public) != 2 {
		t.Errorf("expected 2 public items, got %d", len(public))
	}

	// The owner still sees their own hidden listing.
	forAlice, _ := ListItems(ctx, database, ItemFilter{VisibleTo: alice.ID})
	if len(forAlice) != 3 {
		t.Errorf("expected alice to see 3 items, got %d", len(forAlice))
	}

	weapons, _ := ListItems(ctx, database, ItemFilter{Category: "weapon"})
	if len(weapons) != 2 {
		t.Errorf("expected 2 weapons, got %d", len(weapons))
	}

	bobs, _ := ListItems(ctx, database, ItemFilter{OwnerID: bob.ID})
	if len(bobs) != 1 {
		t.Errorf("expected 1 item for bob, got %d", len(bobs))
	}

	reserved, _ := ListItems(ctx, database, ItemFilter{Status: model.StatusReserved, IncludeHidden: true})
	if len(reserved) != 0 {
		t.Errorf("expected no reserved items, got %d", len(reserved))
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")

	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})
	if err := UpdateItem(ctx, database, l.Item.ID, "Steel Sword", "blade"); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetListing(ctx, database, l.Item.ID)
	if got.Item.Title != "Steel Sword" || got.Item.Category != "blade" {
		t.Errorf("expected updated title and category, got %q / %q", got.Item.Title, got.Item.Category)
	}

	if err := UpdateItem(ctx, database, 999, "x", "y"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestItemScreenshot(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")

	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Photo Item", Category: "misc"})

	data, _, err := GetScreenshot(ctx, database, l.Item.ID)
	if err != nil {
		t.Fatalf("GetScreenshot: %v", err)
	}
	if data != nil {
		t.Error("expected no screenshot on a new item")
	}

	SetScreenshot(ctx, database, l.Item.ID, []byte("fake image data"), "image/jpeg", "/api/items/1/screenshot")

	data, mime, err := GetScreenshot(ctx, database, l.Item.ID)
	if err != nil {
		t.Fatalf("GetScreenshot: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}

	got, _ := GetListing(ctx, database, l.Item.ID)
	if got.Item.ScreenshotRef != "/api/items/1/screenshot" {
		t.Errorf("expected screenshot ref to be updated, got %q", got.Item.ScreenshotRef)
	}
}
