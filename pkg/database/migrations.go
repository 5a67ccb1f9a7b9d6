package database

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration represents an applied database migration
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// MigrationFunc is a function that performs a migration
type MigrationFunc func(*gorm.DB) error

// MigrationEntry represents a single migration
type MigrationEntry struct {
	Version string
	Name    string
	Up      MigrationFunc
}

// Migrator applies versioned migrations, each in its own transaction.
type Migrator struct {
	db         *gorm.DB
	logger     *zap.Logger
	migrations []MigrationEntry
}

// NewMigrator creates a migrator for the given migrations. Entries are
// applied in version order.
func NewMigrator(db *gorm.DB, log *zap.Logger, migrations []MigrationEntry) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	sorted := make([]MigrationEntry, len(migrations))
	copy(sorted, migrations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	return &Migrator{
		db:         db,
		logger:     log.Named("migrator"),
		migrations: sorted,
	}
}

// Migrate runs all pending migrations and returns how many were applied.
func (m *Migrator) Migrate() (int, error) {
	pending, err := m.GetPendingMigrations()
	if err != nil {
		return 0, err
	}

	for i, migration := range pending {
		m.logger.Info("running migration",
			zap.String("version", migration.Version),
			zap.String("name", migration.Name))

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&Migration{
				Version:   migration.Version,
				Name:      migration.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return i, fmt.Errorf("failed to run migration %s: %w", migration.Version, err)
		}
	}

	return len(pending), nil
}

// GetPendingMigrations returns the migrations that have not been applied yet.
func (m *Migrator) GetPendingMigrations() ([]MigrationEntry, error) {
	if err := m.db.AutoMigrate(&Migration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var appliedMigrations []Migration
	if err := m.db.Find(&appliedMigrations).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(appliedMigrations))
	for _, migration := range appliedMigrations {
		applied[migration.Version] = true
	}

	var pending []MigrationEntry
	for _, migration := range m.migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// ExecAll runs each statement in order, tolerating "already exists" errors
// so index and constraint migrations can be re-run safely.
func ExecAll(tx *gorm.DB, statements ...string) error {
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil && !isAlreadyExistsError(err) {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

func isAlreadyExistsError(err error) bool {
	return strings.Contains(err.Error(), "already exists")
}
