package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/darila/internal/db"
	"github.com/erazemk/darila/internal/model"
)

func TestDatabaseFailuresArePersistenceFailures(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")
	l, err := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	id := l.Item.ID
	database.Close()

	calls := []struct {
		name string
		call func() error
	}{
		{"create item", func() error {
			_, err := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Shield", Category: "armor"})
			return err
		}},
		{"get listing", func() error { _, err := GetListing(ctx, database, id); return err }},
		{"list items", func() error { _, err := ListItems(ctx, database, ItemFilter{}); return err }},
		{"set visibility", func() error { return SetVisibility(ctx, database, id, model.VisibilityHidden) }},
		{"get status", func() error { _, err := GetStatus(ctx, database, id); return err }},
		{"compare and set", func() error {
			_, _, err := CompareAndSetStatus(ctx, database, id, Expect{Status: model.StatusAvailable}, reserveFor(owner.ID))
			return err
		}},
		{"append audit", func() error { _, err := AppendAudit(ctx, database, nil, model.TargetItem, id, "x"); return err }},
		{"get user", func() error { _, err := GetUser(ctx, database, owner.ID); return err }},
		{"revoke token", func() error { return RevokeToken(ctx, database, "jti", time.Now().Add(time.Hour)) }},
		{"get setting", func() error { _, _, err := GetSetting(ctx, database, "k"); return err }},
	}
	for _, c := range calls {
		err := c.call()
		if !errors.Is(err, model.ErrPersistence) {
			t.Errorf("%s: expected ErrPersistence, got %v", c.name, err)
		}
		if model.Reason(err) != model.ReasonPersistence {
			t.Errorf("%s: expected reason %q, got %q", c.name, model.ReasonPersistence, model.Reason(err))
		}
	}
}

func TestMissingRowsAreNotPersistenceFailures(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := GetListing(ctx, database, 404)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, model.ErrPersistence) {
		t.Errorf("expected a missing item not to be a persistence failure, got %v", err)
	}
}
