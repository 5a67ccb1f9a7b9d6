package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/pkg/interfaces"
)

// viewStatuses names the cached per-profile status summary.
const viewStatuses = "statuses"

// ProfileSource loads what a profile view is built from.
type ProfileSource interface {
	ListProfileShowIDs(ctx context.Context, profileID int64) ([]int64, error)
	ListProfileMovieIDs(ctx context.Context, profileID int64) ([]int64, error)
	GetShow(ctx context.Context, profileID, showID int64) (*domain.ShowState, error)
	GetMovie(ctx context.Context, profileID, movieID int64) (*domain.MovieState, error)
}

// ContentStatus is one show or movie in a profile view.
type ContentStatus struct {
	ID     int64              `json:"id"`
	Status domain.WatchStatus `json:"status"`
}

// ProfileView summarizes the statuses of everything a profile tracks.
type ProfileView struct {
	AccountID int64           `json:"account_id"`
	ProfileID int64           `json:"profile_id"`
	Shows     []ContentStatus `json:"shows"`
	Movies    []ContentStatus `json:"movies"`
}

// ProfileViews reads profile views through the cache. Entries live for ttl
// or until ProfileInvalidator drops them after a show-level change.
type ProfileViews struct {
	cache  interfaces.Cache
	source ProfileSource
	ttl    time.Duration
	logger interfaces.Logger
}

// NewProfileViews creates a reader over cache and source.
func NewProfileViews(cache interfaces.Cache, source ProfileSource, ttl time.Duration, logger interfaces.Logger) *ProfileViews {
	return &ProfileViews{cache: cache, source: source, ttl: ttl, logger: logger}
}

// Get returns the profile's view, building and caching it on a miss.
func (v *ProfileViews) Get(ctx context.Context, accountID, profileID int64) (*ProfileView, error) {
	key := ProfileKey(accountID, profileID, viewStatuses)
	if cached, err := v.cache.Get(ctx, key); err == nil {
		if view, ok := cached.(*ProfileView); ok {
			return view, nil
		}
	}

	view, err := v.build(ctx, accountID, profileID)
	if err != nil {
		return nil, err
	}
	if err := v.cache.Set(ctx, key, view, v.ttl); err != nil {
		v.logger.Warn("Failed to cache profile view",
			interfaces.String("key", key),
			interfaces.Error(err))
	}
	return view, nil
}

func (v *ProfileViews) build(ctx context.Context, accountID, profileID int64) (*ProfileView, error) {
	view := &ProfileView{
		AccountID: accountID,
		ProfileID: profileID,
		Shows:     []ContentStatus{},
		Movies:    []ContentStatus{},
	}

	showIDs, err := v.source.ListProfileShowIDs(ctx, profileID)
	if err != nil {
		return nil, err
	}
	for _, id := range showIDs {
		show, err := v.source.GetShow(ctx, profileID, id)
		if err != nil {
			return nil, fmt.Errorf("building profile %d view: %w", profileID, err)
		}
		// a show tracked only through episode rows has not been derived yet
		status := show.Status
		if status == domain.StatusNone {
			status = domain.NotWatched
		}
		view.Shows = append(view.Shows, ContentStatus{ID: id, Status: status})
	}

	movieIDs, err := v.source.ListProfileMovieIDs(ctx, profileID)
	if err != nil {
		return nil, err
	}
	for _, id := range movieIDs {
		movie, err := v.source.GetMovie(ctx, profileID, id)
		if err != nil {
			return nil, fmt.Errorf("building profile %d view: %w", profileID, err)
		}
		view.Movies = append(view.Movies, ContentStatus{ID: id, Status: movie.Status})
	}

	v.logger.Debug("Profile view built",
		interfaces.Int64("account_id", accountID),
		interfaces.Int64("profile_id", profileID),
		interfaces.Int("shows", len(view.Shows)),
		interfaces.Int("movies", len(view.Movies)))
	return view, nil
}
