package db

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSeedIdempotent(t *testing.T) {
	d, err := gorm.Open(sqlite.Open("file:seed_idempotent?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := AutoMigrate(d); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	u1, err := Seed(ctx, d)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	u2, err := Seed(ctx, d)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if u1.ID != u2.ID {
		t.Fatalf("expected same demo user, got %s and %s", u1.ID, u2.ID)
	}
	var users, clients int64
	d.Table("users").Count(&users)
	d.Table("clients").Count(&clients)
	if users != 1 {
		t.Fatalf("expected 1 user got %d", users)
	}
	if clients != 2 {
		t.Fatalf("expected 2 clients got %d", clients)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{"migrations/000001_init.up.sql", "migrations/000001_init.down.sql"} {
		if _, err := migrationsFS.ReadFile(name); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
