package database

import (
	"errors"
	"time"

	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/parties"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillPartyNormalizedNames = "2026-07-14_backfill_party_normalized_names"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillPartyNormalizedNames, apply: backfillPartyNormalizedNames},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillPartyNormalizedNames repairs rows imported before the normalized
// dedup key existed.
func backfillPartyNormalizedNames(db *gorm.DB) error {
	var rows []parties.Party
	if err := db.Where("normalized_name = ''").Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		normalized := parties.NormalizeName(row.Name)
		if normalized == "" {
			continue
		}
		if err := db.Model(&parties.Party{}).
			Where("id = ?", row.ID).
			Update("normalized_name", normalized).Error; err != nil {
			return err
		}
	}
	return nil
}
