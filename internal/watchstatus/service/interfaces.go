package service

import (
	"context"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
)

// DataStore is the transactional watch status engine used by WatchStatusService.
type DataStore interface {
	UpdateEpisodeWatchStatus(ctx context.Context, profileID, episodeID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error)
	UpdateSeasonWatchStatus(ctx context.Context, profileID, seasonID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error)
	UpdateShowWatchStatus(ctx context.Context, profileID, showID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error)
	UpdateMovieWatchStatus(ctx context.Context, profileID, movieID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error)
	CheckAndUpdateMovieWatchStatus(ctx context.Context, profileID, movieID int64) (*domain.StatusUpdateResult, error)
	CheckAndUpdateShowWatchStatus(ctx context.Context, profileID, showID int64) (*domain.StatusUpdateResult, error)
}

// ProfileContentLister lists the content a profile tracks.
type ProfileContentLister interface {
	ListProfileShowIDs(ctx context.Context, profileID int64) ([]int64, error)
	ListProfileMovieIDs(ctx context.Context, profileID int64) ([]int64, error)
}

// ProfileCacheInvalidator drops cached per-profile views after show-level changes.
type ProfileCacheInvalidator interface {
	InvalidateProfileCache(ctx context.Context, accountID, profileID int64) error
}

// ChangeNotifier publishes committed change batches to downstream consumers.
type ChangeNotifier interface {
	Notify(ctx context.Context, batch domain.ChangeBatch) error
}

var _ DataStore = (*DataService)(nil)
