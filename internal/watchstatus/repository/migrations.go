package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/watchtrack/pkg/database"
)

// Migrations returns the schema migrations of the watch status store in order.
func Migrations() []database.MigrationEntry {
	return []database.MigrationEntry{
		{
			Version: "20240601_001",
			Name:    "Create catalog tables",
			Up:      migration001CreateCatalog,
		},
		{
			Version: "20240601_002",
			Name:    "Create watch status tables",
			Up:      migration002CreateWatchStatus,
		},
		{
			Version: "20240601_003",
			Name:    "Add indexes for propagation queries",
			Up:      migration003AddIndexes,
		},
	}
}

func migration001CreateCatalog(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&Show{}, &Season{}, &Episode{}, &Movie{}); err != nil {
		return fmt.Errorf("failed to migrate catalog models: %w", err)
	}
	return nil
}

func migration002CreateWatchStatus(tx *gorm.DB) error {
	if err := tx.AutoMigrate(
		&EpisodeWatchStatus{},
		&SeasonWatchStatus{},
		&ShowWatchStatus{},
		&MovieWatchStatus{},
	); err != nil {
		return fmt.Errorf("failed to migrate watch status models: %w", err)
	}
	return nil
}

func migration003AddIndexes(tx *gorm.DB) error {
	return database.ExecAll(tx,
		"CREATE INDEX IF NOT EXISTS idx_seasons_show_number ON seasons(show_id, season_number)",
		"CREATE INDEX IF NOT EXISTS idx_episodes_season_number ON episodes(season_id, episode_number)",
		"CREATE INDEX IF NOT EXISTS idx_episode_watch_status_profile_status ON episode_watch_status(profile_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_show_watch_status_profile ON show_watch_status(profile_id)",
		"CREATE INDEX IF NOT EXISTS idx_movie_watch_status_profile ON movie_watch_status(profile_id)",
	)
}
