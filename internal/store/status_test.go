package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/darila/internal/db"
	"github.com/erazemk/darila/internal/model"
)

func reserveFor(claimant int64) Mutation {
	return func(st *model.ItemStatus) error {
		now := time.Now().UTC()
		contact := "discord:test"
		st.Status = model.StatusReserved
		st.ClaimantID = &claimant
		st.ClaimantContact = &contact
		st.ClaimedAt = &now
		return nil
	}
}

func TestCompareAndSetStatusApplies(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")
	claimant := createTestUser(t, database, "bob")
	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})

	st, applied, err := CompareAndSetStatus(ctx, database, l.Item.ID, Expect{Status: model.StatusAvailable}, reserveFor(claimant.ID))
	if err != nil {
		t.Fatalf("CompareAndSetStatus: %v", err)
	}
	if !applied {
		t.Fatal("expected mutation to be applied")
	}
	if st.Status != model.StatusReserved {
		t.Errorf("expected returned status 'reserved', got %q", st.Status)
	}

	got, _ := GetStatus(ctx, database, l.Item.ID)
	if got.Status != model.StatusReserved {
		t.Errorf("expected stored status 'reserved', got %q", got.Status)
	}
	if !got.IsClaimant(claimant.ID) {
		t.Errorf("expected claimant %d, got %v", claimant.ID, got.ClaimantID)
	}
	if got.ClaimantContact == nil || *got.ClaimantContact != "discord:test" {
		t.Errorf("expected contact to be stored, got %v", got.ClaimantContact)
	}
	if !got.StatusSince.After(l.Status.StatusSince) && !got.StatusSince.Equal(l.Status.StatusSince) {
		t.Error("expected status_since not to move backwards")
	}
}

func TestCompareAndSetStatusMismatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")
	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})

	called := false
	st, applied, err := CompareAndSetStatus(ctx, database, l.Item.ID, Expect{Status: model.StatusReserved}, func(*model.ItemStatus) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("CompareAndSetStatus: %v", err)
	}
	if applied {
		t.Error("expected mutation not to be applied")
	}
	if called {
		t.Error("expected mutation not to run on mismatch")
	}
	if st.Status != model.StatusAvailable {
		t.Errorf("expected observed status 'available', got %q", st.Status)
	}
}

func TestCompareAndSetStatusMutationError(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")
	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})

	boom := errors.New("boom")
	_, applied, err := CompareAndSetStatus(ctx, database, l.Item.ID, Expect{Status: model.StatusAvailable}, func(st *model.ItemStatus) error {
		st.Status = model.StatusGiven
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected mutation error, got %v", err)
	}
	if applied {
		t.Error("expected nothing applied")
	}

	got, _ := GetStatus(ctx, database, l.Item.ID)
	if got.Status != model.StatusAvailable {
		t.Errorf("expected status unchanged, got %q", got.Status)
	}
}

func TestCompareAndSetStatusRejectsBrokenInvariant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")
	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})

	// Reserved without a claimant is never a valid record.
	_, _, err := CompareAndSetStatus(ctx, database, l.Item.ID, Expect{Status: model.StatusAvailable}, func(st *model.ItemStatus) error {
		st.Status = model.StatusReserved
		return nil
	})
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompareAndSetStatusUnknownItem(t *testing.T) {
	database := db.NewTestDB(t)

	_, _, err := CompareAndSetStatus(context.Background(), database, 404, Expect{Status: model.StatusAvailable}, reserveFor(1))
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCompareAndSetStatusRequiresPublic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")
	claimant := createTestUser(t, database, "bob")
	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})
	SetVisibility(ctx, database, l.Item.ID, model.VisibilityHidden)

	expect := Expect{Status: model.StatusAvailable, Public: true}
	st, applied, err := CompareAndSetStatus(ctx, database, l.Item.ID, expect, reserveFor(claimant.ID))
	if err != nil {
		t.Fatalf("CompareAndSetStatus: %v", err)
	}
	if applied {
		t.Error("expected hidden item not to be mutated")
	}
	if st.Status != model.StatusAvailable {
		t.Errorf("expected observed status available, got %s", st.Status)
	}

	SetVisibility(ctx, database, l.Item.ID, model.VisibilityPublic)
	if _, applied, err := CompareAndSetStatus(ctx, database, l.Item.ID, expect, reserveFor(claimant.ID)); err != nil || !applied {
		t.Errorf("expected public item to be mutated, applied=%v err=%v", applied, err)
	}
}

func TestCompareAndSetStatusConcurrent(t *testing.T) {
	database := db.NewTestFileDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "alice")
	l, _ := CreateItem(ctx, database, NewItem{OwnerID: owner.ID, Title: "Sword", Category: "weapon"})

	const n = 8
	claimants := make([]int64, n)
	for i := range claimants {
		claimants[i] = createTestUser(t, database, "claimant"+string(rune('a'+i))).ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for _, c := range claimants {
		wg.Add(1)
		go func(c int64) {
			defer wg.Done()
			_, applied, err := CompareAndSetStatus(ctx, database, l.Item.ID, Expect{Status: model.StatusAvailable}, reserveFor(c))
			if err != nil {
				t.Errorf("CompareAndSetStatus: %v", err)
				return
			}
			if applied {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
}
