package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/pkg/errors"
	"github.com/narwhalmedia/watchtrack/pkg/interfaces"
)

const (
	noChangesMessage     = "No status changes occurred"
	showUnchangedMessage = "Show status is already correct"
)

// UpdateResponse is what callers of WatchStatusService receive.
type UpdateResponse struct {
	Success      bool                  `json:"success"`
	Message      string                `json:"message"`
	Changes      []domain.StatusChange `json:"changes"`
	AffectedRows int64                 `json:"affected_rows"`
}

// WatchStatusService wraps the data service, invalidates profile caches
// after show-level changes and publishes committed changes.
type WatchStatusService struct {
	data     DataStore
	content  ProfileContentLister
	cache    ProfileCacheInvalidator
	notifier ChangeNotifier
	logger   interfaces.Logger
}

// NewWatchStatusService creates a new watch status service
func NewWatchStatusService(
	data DataStore,
	content ProfileContentLister,
	cache ProfileCacheInvalidator,
	notifier ChangeNotifier,
	logger interfaces.Logger,
) *WatchStatusService {
	return &WatchStatusService{
		data:     data,
		content:  content,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// UpdateEpisodeWatchStatus sets an episode's status.
func (s *WatchStatusService) UpdateEpisodeWatchStatus(ctx context.Context, accountID, profileID, episodeID int64, status domain.WatchStatus) (*UpdateResponse, error) {
	result, err := s.data.UpdateEpisodeWatchStatus(ctx, profileID, episodeID, status)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, errors.Database("Failed to update episode watch status", nil)
	}
	s.afterCommit(ctx, accountID, profileID, domain.OpEpisodeUpdate, result, false)
	return newResponse(result, FormatChangesMessage(result.Changes)), nil
}

// UpdateSeasonWatchStatus sets a season's status.
func (s *WatchStatusService) UpdateSeasonWatchStatus(ctx context.Context, accountID, profileID, seasonID int64, status domain.WatchStatus) (*UpdateResponse, error) {
	result, err := s.data.UpdateSeasonWatchStatus(ctx, profileID, seasonID, status)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, errors.Database("Failed to update season watch status", nil)
	}
	s.afterCommit(ctx, accountID, profileID, domain.OpSeasonUpdate, result, false)
	return newResponse(result, FormatChangesMessage(result.Changes)), nil
}

// UpdateShowWatchStatus sets a show's status. The profile cache is always
// invalidated on success.
func (s *WatchStatusService) UpdateShowWatchStatus(ctx context.Context, accountID, profileID, showID int64, status domain.WatchStatus) (*UpdateResponse, error) {
	result, err := s.data.UpdateShowWatchStatus(ctx, profileID, showID, status)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, errors.Database("Failed to update show watch status", nil)
	}
	s.afterCommit(ctx, accountID, profileID, domain.OpShowUpdate, result, true)
	return newResponse(result, FormatChangesMessage(result.Changes)), nil
}

// UpdateMovieWatchStatus sets a movie's status.
func (s *WatchStatusService) UpdateMovieWatchStatus(ctx context.Context, accountID, profileID, movieID int64, status domain.WatchStatus) (*UpdateResponse, error) {
	result, err := s.data.UpdateMovieWatchStatus(ctx, profileID, movieID, status)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, errors.Database("Failed to update movie watch status", nil)
	}
	s.afterCommit(ctx, accountID, profileID, domain.OpMovieUpdate, result, false)
	return newResponse(result, FormatChangesMessage(result.Changes)), nil
}

// CheckAndUpdateMovieWatchStatus reconciles a movie with its release date.
func (s *WatchStatusService) CheckAndUpdateMovieWatchStatus(ctx context.Context, accountID, profileID, movieID int64) (*UpdateResponse, error) {
	result, err := s.data.CheckAndUpdateMovieWatchStatus(ctx, profileID, movieID)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, errors.Database("Failed to recalculate and update movie watch status", nil)
	}
	s.afterCommit(ctx, accountID, profileID, domain.OpMovieReconcile, result, false)
	return newResponse(result, FormatChangesMessage(result.Changes)), nil
}

// CheckAndUpdateShowWatchStatus reconciles a show with current content facts.
func (s *WatchStatusService) CheckAndUpdateShowWatchStatus(ctx context.Context, accountID, profileID, showID int64) (*UpdateResponse, error) {
	result, err := s.reconcileShow(ctx, profileID, showID)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, accountID, profileID, domain.OpShowReconcile, result, false)
	return newResponse(result, reconcileMessage(result.Changes)), nil
}

// ReconcileProfile reconciles every show and movie a profile tracks. Each
// item runs in its own transaction; the first failure stops the run and
// items already reconciled stay committed.
func (s *WatchStatusService) ReconcileProfile(ctx context.Context, accountID, profileID int64) (*UpdateResponse, error) {
	showIDs, err := s.content.ListProfileShowIDs(ctx, profileID)
	if err != nil {
		return nil, errors.Database("listing profile shows", err)
	}
	movieIDs, err := s.content.ListProfileMovieIDs(ctx, profileID)
	if err != nil {
		return nil, errors.Database("listing profile movies", err)
	}

	total := &domain.StatusUpdateResult{Success: true, Changes: []domain.StatusChange{}}
	merge := func(r *domain.StatusUpdateResult) {
		total.Changes = append(total.Changes, r.Changes...)
		total.AffectedRows += r.AffectedRows
	}

	for _, showID := range showIDs {
		result, err := s.reconcileShow(ctx, profileID, showID)
		if err != nil {
			return nil, err
		}
		merge(result)
	}
	for _, movieID := range movieIDs {
		result, err := s.data.CheckAndUpdateMovieWatchStatus(ctx, profileID, movieID)
		if err != nil {
			return nil, err
		}
		if !result.Success {
			return nil, errors.Database("Failed to recalculate and update movie watch status", nil)
		}
		merge(result)
	}

	s.afterCommit(ctx, accountID, profileID, domain.OpShowReconcile, total, false)

	s.logger.Info("Profile reconciled",
		interfaces.Int64("account_id", accountID),
		interfaces.Int64("profile_id", profileID),
		interfaces.Int("shows", len(showIDs)),
		interfaces.Int("movies", len(movieIDs)),
		interfaces.Int("changes", len(total.Changes)))

	return newResponse(total, FormatChangesMessage(total.Changes)), nil
}

func (s *WatchStatusService) reconcileShow(ctx context.Context, profileID, showID int64) (*domain.StatusUpdateResult, error) {
	result, err := s.data.CheckAndUpdateShowWatchStatus(ctx, profileID, showID)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, errors.Database("Failed to recalculate and update show watch status", nil)
	}
	return result, nil
}

// afterCommit invalidates the profile cache when a show changed (or always,
// when forced) and publishes the changes. Failures of either are logged and
// do not fail the operation.
func (s *WatchStatusService) afterCommit(ctx context.Context, accountID, profileID int64, operation string, result *domain.StatusUpdateResult, forceInvalidate bool) {
	if forceInvalidate || result.HasChange(domain.EntityShow) {
		if err := s.cache.InvalidateProfileCache(ctx, accountID, profileID); err != nil {
			s.logger.Warn("Failed to invalidate profile cache",
				interfaces.Int64("account_id", accountID),
				interfaces.Int64("profile_id", profileID),
				interfaces.Error(err))
		}
	}

	if len(result.Changes) == 0 {
		return
	}
	batch := domain.ChangeBatch{
		AccountID: accountID,
		ProfileID: profileID,
		Operation: operation,
		Changes:   result.Changes,
	}
	if err := s.notifier.Notify(ctx, batch); err != nil {
		s.logger.Warn("Failed to publish status changes",
			interfaces.String("operation", operation),
			interfaces.Int64("profile_id", profileID),
			interfaces.Error(err))
	}
}

func newResponse(result *domain.StatusUpdateResult, message string) *UpdateResponse {
	return &UpdateResponse{
		Success:      result.Success,
		Message:      message,
		Changes:      result.Changes,
		AffectedRows: result.AffectedRows,
	}
}

func reconcileMessage(changes []domain.StatusChange) string {
	if len(changes) == 0 {
		return showUnchangedMessage
	}
	return FormatChangesMessage(changes)
}

// FormatChangesMessage summarizes changes per entity type, e.g.
// "Updated 1 episode, 1 season, 1 show". Groups appear in the order their
// entity type first occurs in changes.
func FormatChangesMessage(changes []domain.StatusChange) string {
	if len(changes) == 0 {
		return noChangesMessage
	}

	var order []domain.EntityType
	counts := make(map[domain.EntityType]int)
	for _, c := range changes {
		if counts[c.EntityType] == 0 {
			order = append(order, c.EntityType)
		}
		counts[c.EntityType]++
	}

	parts := make([]string, len(order))
	for i, entityType := range order {
		n := counts[entityType]
		noun := string(entityType)
		if n != 1 {
			noun += "s"
		}
		parts[i] = fmt.Sprintf("%d %s", n, noun)
	}
	return "Updated " + strings.Join(parts, ", ")
}
