package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
)

// HierarchyReader loads content joined with a profile's stored statuses.
// Missing status rows read as domain.StatusNone.
type HierarchyReader interface {
	GetEpisodeContext(ctx context.Context, profileID, episodeID int64) (*domain.EpisodeContext, error)
	GetSeasonContext(ctx context.Context, profileID, seasonID int64) (*domain.SeasonContext, error)
	GetShow(ctx context.Context, profileID, showID int64) (*domain.ShowState, error)
	GetMovie(ctx context.Context, profileID, movieID int64) (*domain.MovieState, error)
	ListSeasonEpisodes(ctx context.Context, profileID, seasonID int64) ([]domain.EpisodeState, error)
	ListShowEpisodes(ctx context.Context, profileID, showID int64) ([]domain.EpisodeState, error)
	ListShowSeasons(ctx context.Context, profileID, showID int64) ([]domain.SeasonState, error)
}

// StatusWriter upserts status rows keyed on (profile_id, entity_id). Every
// method returns the number of affected rows.
type StatusWriter interface {
	UpsertEpisodeStatuses(ctx context.Context, profileID int64, writes []domain.EpisodeWrite) (int64, error)
	UpsertSeasonStatuses(ctx context.Context, profileID int64, writes []domain.SeasonWrite) (int64, error)
	UpsertShowStatus(ctx context.Context, profileID, showID int64, status domain.WatchStatus) (int64, error)
	UpsertMovieStatus(ctx context.Context, profileID, movieID int64, status domain.WatchStatus) (int64, error)
	ExpireUnairedEpisodes(ctx context.Context, profileID int64, episodeIDs []int64) (int64, error)
}

// WatchStatusRepository is the storage boundary of the watch status engine.
type WatchStatusRepository interface {
	HierarchyReader
	StatusWriter

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) WatchStatusRepository

	ListProfileShowIDs(ctx context.Context, profileID int64) ([]int64, error)
	ListProfileMovieIDs(ctx context.Context, profileID int64) ([]int64, error)
}

// CatalogRepository writes content rows.
type CatalogRepository interface {
	CreateShow(ctx context.Context, show *Show) error
	CreateSeason(ctx context.Context, season *Season) error
	CreateEpisode(ctx context.Context, episode *Episode) error
	CreateMovie(ctx context.Context, movie *Movie) error
	GetEpisode(ctx context.Context, id int64) (*Episode, error)
	UpdateEpisodeAirDate(ctx context.Context, id int64, airDate *time.Time) error
	SetShowInProduction(ctx context.Context, id int64, inProduction bool) error
}
