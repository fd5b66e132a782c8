package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pavitra93/go-lease-management/shared/models"
)

// Migration is one versioned schema change
type Migration struct {
	Version string
	Name    string
	Up      func(db *gorm.DB) error
	Down    func(db *gorm.DB) error
}

// MigrationRecord tracks an applied migration
type MigrationRecord struct {
	Version   string    `gorm:"primaryKey;type:varchar(32)"`
	Name      string    `gorm:"type:varchar(128);not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the MigrationRecord model
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// Migrator handles the execution of migrations
type Migrator struct {
	db         *gorm.DB
	log        *logrus.Entry
	migrations []*Migration
}

// NewMigrator creates a new Migrator instance
func NewMigrator(db *gorm.DB, log *logrus.Entry) *Migrator {
	return &Migrator{
		db:  db,
		log: log,
	}
}

// Register adds migrations in the order they must run
func (m *Migrator) Register(migrations ...*Migration) {
	m.migrations = append(m.migrations, migrations...)
}

// Applied returns the set of applied migration versions
func (m *Migrator) Applied(ctx context.Context) (map[string]bool, error) {
	db := m.db.WithContext(ctx)
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create migration table: %w", err)
	}

	var records []MigrationRecord
	if err := db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read migration table: %w", err)
	}

	versions := make(map[string]bool, len(records))
	for _, record := range records {
		versions[record.Version] = true
	}
	return versions, nil
}

// Up applies all pending migrations, each in its own transaction
func (m *Migrator) Up(ctx context.Context) error {
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{
				Version:   mig.Version,
				Name:      mig.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s_%s failed: %w", mig.Version, mig.Name, err)
		}
		m.log.WithField("version", mig.Version).Infof("Applied migration %s", mig.Name)
	}
	return nil
}

// Down rolls back the last applied migration
func (m *Migrator) Down(ctx context.Context) error {
	var last MigrationRecord
	if err := m.db.WithContext(ctx).Order("version DESC").First(&last).Error; err != nil {
		return fmt.Errorf("no migration to roll back: %w", err)
	}

	var target *Migration
	for _, mig := range m.migrations {
		if mig.Version == last.Version {
			target = mig
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %s is not registered", last.Version)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := target.Down(tx); err != nil {
			return err
		}
		return tx.Delete(&last).Error
	})
}

// Migrations returns the lease schema history
func Migrations() []*Migration {
	return []*Migration{
		{
			Version: "0001",
			Name:    "create_tables",
			Up: func(db *gorm.DB) error {
				return db.AutoMigrate(models.All()...)
			},
			Down: func(db *gorm.DB) error {
				all := models.All()
				for i := len(all) - 1; i >= 0; i-- {
					if err := db.Migrator().DropTable(all[i]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			// Database-level guarantee against overlapping leases on one unit.
			// SQLite serializes writers, so the constraint is PostgreSQL only.
			Version: "0002",
			Name:    "contract_overlap_exclusion",
			Up: func(db *gorm.DB) error {
				if db.Dialector.Name() != "postgres" {
					return nil
				}
				if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
					return err
				}
				return db.Exec(`ALTER TABLE contracts ADD CONSTRAINT contracts_unit_no_overlap
					EXCLUDE USING gist (unit_id WITH =, daterange(start_date, end_date, '[]') WITH &&)`).Error
			},
			Down: func(db *gorm.DB) error {
				if db.Dialector.Name() != "postgres" {
					return nil
				}
				return db.Exec("ALTER TABLE contracts DROP CONSTRAINT IF EXISTS contracts_unit_no_overlap").Error
			},
		},
	}
}

// Migrate brings the schema up to date
func Migrate(ctx context.Context, db *gorm.DB, log *logrus.Entry) error {
	m := NewMigrator(db, log)
	m.Register(Migrations()...)
	return m.Up(ctx)
}
