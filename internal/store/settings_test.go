package store

import (
	"context"
	"testing"

	"github.com/erazemk/darila/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestSetDefaultSettingKeepsFirstValue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, ok, _ := GetSetting(ctx, database, "motd"); ok {
		t.Fatal("expected no setting before insert")
	}

	first, err := SetDefaultSetting(ctx, database, "motd", "hello")
	if err != nil {
		t.Fatal(err)
	}
	second, err := SetDefaultSetting(ctx, database, "motd", "goodbye")
	if err != nil {
		t.Fatal(err)
	}
	if first != "hello" || second != "hello" {
		t.Errorf("expected both calls to see 'hello', got %q and %q", first, second)
	}
}
