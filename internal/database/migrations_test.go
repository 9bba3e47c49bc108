package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/parties"
	"gorm.io/gorm"
)

func newMigrationTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:database_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&parties.Party{}, &migrationRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestApplyMigrationsBackfillsNormalizedNames(t *testing.T) {
	db := newMigrationTestDB(t)

	legacy := parties.Party{Name: "ABC  Textiles", NormalizedName: ""}
	if err := db.Create(&legacy).Error; err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	var repaired parties.Party
	if err := db.Where("id = ?", legacy.ID).Take(&repaired).Error; err != nil {
		t.Fatalf("load repaired row: %v", err)
	}
	if repaired.NormalizedName != "abc textiles" {
		t.Fatalf("normalized name not backfilled: %q", repaired.NormalizedName)
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := newMigrationTestDB(t)

	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var count int64
	if err := db.Model(&migrationRecord{}).
		Where("name = ?", migrationBackfillPartyNormalizedNames).
		Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the migration recorded once, got %d", count)
	}
}
