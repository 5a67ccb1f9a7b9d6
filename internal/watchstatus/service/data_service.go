package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchtrack/pkg/database"
	"github.com/narwhalmedia/watchtrack/pkg/errors"
	"github.com/narwhalmedia/watchtrack/pkg/interfaces"
)

// Operation contexts attached to database errors.
const (
	opUpdateEpisode    = "updating episode watch status with propagation"
	opUpdateSeason     = "updating season watch status with propagation"
	opUpdateShow       = "updating show watch status with propagation"
	opUpdateMovie      = "updating movie watch status"
	opReconcileMovie   = "checking and updating movie watch status"
	opReconcileShow    = "checking and updating show watch status"
	reasonContent      = "Content updates detected"
	reasonMovieRelease = "Movie release date passed"
)

// DataService reads and writes watch statuses. Every public operation runs in
// exactly one transaction and propagates bottom-up: episodes, then seasons,
// then the show.
type DataService struct {
	repo   repository.WatchStatusRepository
	tx     database.Transactor
	calc   *domain.StatusCalculator
	logger interfaces.Logger
}

// NewDataService creates a new data service
func NewDataService(
	repo repository.WatchStatusRepository,
	tx database.Transactor,
	calc *domain.StatusCalculator,
	logger interfaces.Logger,
) *DataService {
	return &DataService{
		repo:   repo,
		tx:     tx,
		calc:   calc,
		logger: logger,
	}
}

// changeSet accumulates the outcome of one logical operation.
type changeSet struct {
	calc     *domain.StatusCalculator
	changes  []domain.StatusChange
	affected int64
}

func (c *changeSet) add(rows int64) {
	c.affected += rows
}

// record appends a change unless from and to are equal. from is the status
// the entity had in effect, not necessarily what was stored.
func (c *changeSet) record(entityType domain.EntityType, id int64, from, to domain.WatchStatus, reason string) {
	if from == to {
		return
	}
	c.changes = append(c.changes, domain.NewStatusChange(entityType, id, from, to, reason, c.calc.Now()))
}

// priorStatus is the status a season or show counts as before its first row
// is written.
func priorStatus(stored domain.WatchStatus) domain.WatchStatus {
	if stored == domain.StatusNone {
		return domain.NotWatched
	}
	return stored
}

func (c *changeSet) result() *domain.StatusUpdateResult {
	changes := c.changes
	if changes == nil {
		changes = []domain.StatusChange{}
	}
	return &domain.StatusUpdateResult{Success: true, Changes: changes, AffectedRows: c.affected}
}

// execute runs fn in a transaction. Not-found and bad-request errors are
// returned unchanged; anything else is wrapped as a database error.
func (s *DataService) execute(ctx context.Context, operation string, fn func(repo repository.WatchStatusRepository, cs *changeSet) error) (*domain.StatusUpdateResult, error) {
	cs := &changeSet{calc: s.calc}
	err := s.tx.InTransaction(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx), cs)
	})
	if err != nil {
		if errors.IsNotFound(err) || errors.IsBadRequest(err) {
			return nil, err
		}
		s.logger.Error("Watch status transaction failed",
			interfaces.String("operation", operation),
			interfaces.Error(err))
		return nil, errors.Database(operation, err)
	}
	return cs.result(), nil
}

func validateTarget(kind domain.ContentKind, status domain.WatchStatus) error {
	if !status.ValidManualTarget(kind) {
		return errors.BadRequest(fmt.Sprintf("%s is not a valid %s watch status", status, kind))
	}
	return nil
}

// UpdateEpisodeWatchStatus sets an episode's status and propagates the change
// to its season and, if the season changed, to its show.
func (s *DataService) UpdateEpisodeWatchStatus(ctx context.Context, profileID, episodeID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	if err := validateTarget(domain.KindEpisode, status); err != nil {
		return nil, err
	}

	result, err := s.execute(ctx, opUpdateEpisode, func(repo repository.WatchStatusRepository, cs *changeSet) error {
		ec, err := repo.GetEpisodeContext(ctx, profileID, episodeID)
		if err != nil {
			return err
		}
		if s.calc.IsUnaired(ec.Episode.AirDate) {
			return errors.BadRequest(fmt.Sprintf("Episode %d has not aired yet", episodeID))
		}

		n, err := repo.UpsertEpisodeStatuses(ctx, profileID, []domain.EpisodeWrite{{EpisodeID: episodeID, Status: status}})
		if err != nil {
			return err
		}
		cs.add(n)
		from := s.calc.CalculateEpisodeStatus(domain.EpisodeInput{AirDate: ec.Episode.AirDate, ExistingStatus: ec.Episode.Status})
		cs.record(domain.EntityEpisode, episodeID, from, status,
			fmt.Sprintf("Episode manually set to %s", status))

		seasonChanged, err := s.recalculateSeason(ctx, repo, cs, profileID, ec.Season,
			fmt.Sprintf("Episode %d status changed", episodeID))
		if err != nil || !seasonChanged {
			return err
		}

		_, err = s.recalculateShow(ctx, repo, cs, profileID, ec.Show,
			fmt.Sprintf("Season %d status changed", ec.Season.ID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Episode watch status updated",
		interfaces.Int64("profile_id", profileID),
		interfaces.Int64("episode_id", episodeID),
		interfaces.String("status", status.String()),
		interfaces.Int("changes", len(result.Changes)))
	return result, nil
}

// UpdateSeasonWatchStatus fans status out to every aired episode of the
// season, then re-derives the season and its show.
func (s *DataService) UpdateSeasonWatchStatus(ctx context.Context, profileID, seasonID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	if err := validateTarget(domain.KindSeason, status); err != nil {
		return nil, err
	}

	result, err := s.execute(ctx, opUpdateSeason, func(repo repository.WatchStatusRepository, cs *changeSet) error {
		sc, err := repo.GetSeasonContext(ctx, profileID, seasonID)
		if err != nil {
			return err
		}

		episodes, err := repo.ListSeasonEpisodes(ctx, profileID, seasonID)
		if err != nil {
			return err
		}
		n, err := repo.UpsertEpisodeStatuses(ctx, profileID, s.calc.PlanEpisodeFanOut(episodes, status))
		if err != nil {
			return err
		}
		cs.add(n)

		if _, err := s.recalculateSeason(ctx, repo, cs, profileID, sc.Season,
			fmt.Sprintf("Season manually set to %s", status)); err != nil {
			return err
		}

		_, err = s.recalculateShow(ctx, repo, cs, profileID, sc.Show,
			fmt.Sprintf("Season %d status changed", seasonID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Season watch status updated",
		interfaces.Int64("profile_id", profileID),
		interfaces.Int64("season_id", seasonID),
		interfaces.String("status", status.String()),
		interfaces.Int64("affected_rows", result.AffectedRows))
	return result, nil
}

// UpdateShowWatchStatus fans status out to every aired episode of the show,
// re-derives every season and then the show. Only the show change is
// recorded, plus any season whose derived status differs from status.
func (s *DataService) UpdateShowWatchStatus(ctx context.Context, profileID, showID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	if err := validateTarget(domain.KindShow, status); err != nil {
		return nil, err
	}

	result, err := s.execute(ctx, opUpdateShow, func(repo repository.WatchStatusRepository, cs *changeSet) error {
		show, err := repo.GetShow(ctx, profileID, showID)
		if err != nil {
			return err
		}

		episodes, err := repo.ListShowEpisodes(ctx, profileID, showID)
		if err != nil {
			return err
		}
		n, err := repo.UpsertEpisodeStatuses(ctx, profileID, s.calc.PlanEpisodeFanOut(episodes, status))
		if err != nil {
			return err
		}
		cs.add(n)

		episodes, err = repo.ListShowEpisodes(ctx, profileID, showID)
		if err != nil {
			return err
		}
		seasons, err := repo.ListShowSeasons(ctx, profileID, showID)
		if err != nil {
			return err
		}

		var writes []domain.SeasonWrite
		for _, season := range seasons {
			derived := s.calc.CalculateSeasonStatus(s.calc.SeasonFromEpisodes(season, episodes))
			if derived == season.Status {
				continue
			}
			writes = append(writes, domain.SeasonWrite{SeasonID: season.ID, Status: derived})
			if derived != status {
				cs.record(domain.EntitySeason, season.ID, priorStatus(season.Status), derived,
					fmt.Sprintf("Show %d status changed", showID))
			}
		}
		n, err = repo.UpsertSeasonStatuses(ctx, profileID, writes)
		if err != nil {
			return err
		}
		cs.add(n)

		_, err = s.recalculateShow(ctx, repo, cs, profileID, *show,
			fmt.Sprintf("Show manually set to %s", status))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Show watch status updated",
		interfaces.Int64("profile_id", profileID),
		interfaces.Int64("show_id", showID),
		interfaces.String("status", status.String()),
		interfaces.Int64("affected_rows", result.AffectedRows))
	return result, nil
}

// UpdateMovieWatchStatus sets a movie's status. Movie changes are reported
// with the episode entity type.
func (s *DataService) UpdateMovieWatchStatus(ctx context.Context, profileID, movieID int64, status domain.WatchStatus) (*domain.StatusUpdateResult, error) {
	if err := validateTarget(domain.KindMovie, status); err != nil {
		return nil, err
	}

	return s.execute(ctx, opUpdateMovie, func(repo repository.WatchStatusRepository, cs *changeSet) error {
		movie, err := repo.GetMovie(ctx, profileID, movieID)
		if err != nil {
			return err
		}
		if s.calc.IsUnaired(movie.ReleaseDate) {
			return errors.BadRequest(fmt.Sprintf("Movie %d has not been released yet", movieID))
		}

		n, err := repo.UpsertMovieStatus(ctx, profileID, movieID, status)
		if err != nil {
			return err
		}
		cs.add(n)
		cs.record(domain.EntityEpisode, movieID, s.calc.CalculateMovieStatus(movie.ReleaseDate, movie.Status), status,
			fmt.Sprintf("Movie manually set to %s", status))
		return nil
	})
}

// CheckAndUpdateMovieWatchStatus moves a released movie from UNAIRED, or from
// no status at all, to NOT_WATCHED. Any other state is left alone. A movie
// without a row is reported with StatusNone as its previous status.
func (s *DataService) CheckAndUpdateMovieWatchStatus(ctx context.Context, profileID, movieID int64) (*domain.StatusUpdateResult, error) {
	return s.execute(ctx, opReconcileMovie, func(repo repository.WatchStatusRepository, cs *changeSet) error {
		movie, err := repo.GetMovie(ctx, profileID, movieID)
		if err != nil {
			return err
		}
		if s.calc.IsUnaired(movie.ReleaseDate) {
			return nil
		}
		if movie.Status != domain.Unaired && movie.Status != domain.StatusNone {
			return nil
		}

		n, err := repo.UpsertMovieStatus(ctx, profileID, movieID, domain.NotWatched)
		if err != nil {
			return err
		}
		cs.add(n)
		cs.record(domain.EntityEpisode, movieID, movie.Status, domain.NotWatched, reasonMovieRelease)
		return nil
	})
}

// CheckAndUpdateShowWatchStatus reconciles stored statuses of a show with
// current air dates and production state. Episodes whose air date passed
// are expired from UNAIRED first, then seasons and the show are re-derived.
func (s *DataService) CheckAndUpdateShowWatchStatus(ctx context.Context, profileID, showID int64) (*domain.StatusUpdateResult, error) {
	result, err := s.execute(ctx, opReconcileShow, func(repo repository.WatchStatusRepository, cs *changeSet) error {
		show, err := repo.GetShow(ctx, profileID, showID)
		if err != nil {
			return err
		}

		episodes, err := repo.ListShowEpisodes(ctx, profileID, showID)
		if err != nil {
			return err
		}
		// episode expiry alone never produces a change record
		if expired := s.calc.ExpiredUnaired(episodes); len(expired) > 0 {
			n, err := repo.ExpireUnairedEpisodes(ctx, profileID, expired)
			if err != nil {
				return err
			}
			cs.add(n)
			if episodes, err = repo.ListShowEpisodes(ctx, profileID, showID); err != nil {
				return err
			}
		}

		seasons, err := repo.ListShowSeasons(ctx, profileID, showID)
		if err != nil {
			return err
		}
		var writes []domain.SeasonWrite
		for _, season := range seasons {
			derived := s.calc.CalculateSeasonStatus(s.calc.SeasonFromEpisodes(season, episodes))
			if derived == season.Status {
				continue
			}
			writes = append(writes, domain.SeasonWrite{SeasonID: season.ID, Status: derived})
			cs.record(domain.EntitySeason, season.ID, priorStatus(season.Status), derived, reasonContent)
		}
		n, err := repo.UpsertSeasonStatuses(ctx, profileID, writes)
		if err != nil {
			return err
		}
		cs.add(n)

		_, err = s.recalculateShow(ctx, repo, cs, profileID, *show, reasonContent)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Show watch status reconciled",
		interfaces.Int64("profile_id", profileID),
		interfaces.Int64("show_id", showID),
		interfaces.Int("changes", len(result.Changes)),
		interfaces.Int64("affected_rows", result.AffectedRows))
	return result, nil
}

// recalculateSeason re-derives season from its episodes as currently stored
// in the transaction and upserts it when the derived status differs.
func (s *DataService) recalculateSeason(
	ctx context.Context,
	repo repository.WatchStatusRepository,
	cs *changeSet,
	profileID int64,
	season domain.SeasonState,
	reason string,
) (bool, error) {
	episodes, err := repo.ListSeasonEpisodes(ctx, profileID, season.ID)
	if err != nil {
		return false, err
	}

	derived := s.calc.CalculateSeasonStatus(s.calc.SeasonFromEpisodes(season, episodes))
	if derived == season.Status {
		return false, nil
	}

	n, err := repo.UpsertSeasonStatuses(ctx, profileID, []domain.SeasonWrite{{SeasonID: season.ID, Status: derived}})
	if err != nil {
		return false, err
	}
	cs.add(n)
	cs.record(domain.EntitySeason, season.ID, priorStatus(season.Status), derived, reason)
	return true, nil
}

// recalculateShow re-derives show from its seasons and upserts it when the
// derived status differs. Seasons without a stored status are derived from
// their episodes for the calculation but not written.
func (s *DataService) recalculateShow(
	ctx context.Context,
	repo repository.WatchStatusRepository,
	cs *changeSet,
	profileID int64,
	show domain.ShowState,
	reason string,
) (bool, error) {
	seasons, err := repo.ListShowSeasons(ctx, profileID, show.ID)
	if err != nil {
		return false, err
	}
	if hasUnderived(seasons) {
		episodes, err := repo.ListShowEpisodes(ctx, profileID, show.ID)
		if err != nil {
			return false, err
		}
		seasons = s.calc.FillUnderivedSeasons(seasons, episodes)
	}

	derived := s.calc.CalculateShowStatus(domain.ShowFromSeasons(show, seasons))
	if derived == show.Status {
		return false, nil
	}

	n, err := repo.UpsertShowStatus(ctx, profileID, show.ID, derived)
	if err != nil {
		return false, err
	}
	cs.add(n)
	cs.record(domain.EntityShow, show.ID, priorStatus(show.Status), derived, reason)
	return true, nil
}

func hasUnderived(seasons []domain.SeasonState) bool {
	for _, season := range seasons {
		if season.Status == domain.StatusNone {
			return true
		}
	}
	return false
}
