package parties

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:parties_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Party{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{raw: "ABC Textiles", want: "abc textiles"},
		{raw: "  abc   TEXTILES  ", want: "abc textiles"},
		{raw: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.raw); got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestFindOrCreateDeduplicatesByNormalizedName(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.FindOrCreate(ctx, PartyInput{Name: "ABC Textiles", Phone: "111"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := service.FindOrCreate(ctx, PartyInput{Name: "  abc   textiles "})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("name variants must resolve to the same party: %d vs %d", first.ID, second.ID)
	}

	parties, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(parties) != 1 {
		t.Fatalf("expected one party, got %d", len(parties))
	}
	// the original display name is preserved
	if parties[0].Name != "ABC Textiles" {
		t.Fatalf("display name changed: %q", parties[0].Name)
	}
}

func TestFindOrCreateRefreshesMetadata(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.FindOrCreate(ctx, PartyInput{Name: "ABC Textiles", Phone: "111"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := service.FindOrCreate(ctx, PartyInput{Name: "abc textiles", Phone: "222", ContactPerson: "Ravi"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if updated.Phone != "222" || updated.ContactPerson != "Ravi" {
		t.Fatalf("metadata not refreshed: %+v", updated)
	}

	// empty input fields never clear stored metadata
	again, err := service.FindOrCreate(ctx, PartyInput{Name: "abc textiles"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if again.Phone != "222" {
		t.Fatalf("empty input must not clear phone: %+v", again)
	}
}

func TestFindOrCreateRejectsEmptyName(t *testing.T) {
	service := newTestService(t)
	if _, err := service.FindOrCreate(context.Background(), PartyInput{Name: "   "}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	party, err := service.FindOrCreate(ctx, PartyInput{Name: "ABC Textiles"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	renamed, err := service.Update(ctx, party.ID, PartyInput{Name: "ABC Spinning Mills", Address: "Coimbatore"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if renamed.NormalizedName != "abc spinning mills" || renamed.Address != "Coimbatore" {
		t.Fatalf("update not applied: %+v", renamed)
	}

	if err := service.Delete(ctx, party.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.Get(ctx, party.ID); !errors.Is(err, ErrPartyNotFound) {
		t.Fatalf("expected party gone, got %v", err)
	}
	if err := service.Delete(ctx, party.ID); !errors.Is(err, ErrPartyNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}
