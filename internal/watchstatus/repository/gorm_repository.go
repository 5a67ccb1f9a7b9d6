package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/pkg/errors"
	"github.com/narwhalmedia/watchtrack/pkg/repository"
)

var (
	statusUpdateColumns = []string{"status", "updated_at"}

	episodeConflict = []string{"profile_id", "episode_id"}
	seasonConflict  = []string{"profile_id", "season_id"}
	showConflict    = []string{"profile_id", "show_id"}
	movieConflict   = []string{"profile_id", "movie_id"}
)

// GormRepository implements WatchStatusRepository and CatalogRepository using GORM.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository creates a new GORM repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

var (
	_ WatchStatusRepository = (*GormRepository)(nil)
	_ CatalogRepository     = (*GormRepository)(nil)
)

// WithTx returns a repository that issues every statement on tx.
func (r *GormRepository) WithTx(tx *gorm.DB) WatchStatusRepository {
	return &GormRepository{db: tx, now: r.now}
}

// GetEpisodeContext loads an episode with its season and show.
func (r *GormRepository) GetEpisodeContext(ctx context.Context, profileID, episodeID int64) (*domain.EpisodeContext, error) {
	var row episodeContextRow
	result := r.db.WithContext(ctx).
		Table("episodes AS e").
		Select(`e.id AS episode_id, e.season_id, e.show_id, e.air_date, ews.status AS episode_status,
			s.release_date AS season_release_date, sws.status AS season_status,
			sh.release_date AS show_release_date, sh.in_production, shws.status AS show_status`).
		Joins("JOIN seasons AS s ON s.id = e.season_id").
		Joins("JOIN shows AS sh ON sh.id = e.show_id").
		Joins("LEFT JOIN episode_watch_status AS ews ON ews.episode_id = e.id AND ews.profile_id = ?", profileID).
		Joins("LEFT JOIN season_watch_status AS sws ON sws.season_id = s.id AND sws.profile_id = ?", profileID).
		Joins("LEFT JOIN show_watch_status AS shws ON shws.show_id = sh.id AND shws.profile_id = ?", profileID).
		Where("e.id = ?", episodeID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load episode %d: %w", episodeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errors.NotFoundf("Episode %d not found", episodeID)
	}
	return row.toDomain(), nil
}

// GetSeasonContext loads a season with its show.
func (r *GormRepository) GetSeasonContext(ctx context.Context, profileID, seasonID int64) (*domain.SeasonContext, error) {
	var row seasonContextRow
	result := r.db.WithContext(ctx).
		Table("seasons AS s").
		Select(`s.id AS season_id, s.show_id, s.release_date AS season_release_date, sws.status AS season_status,
			sh.release_date AS show_release_date, sh.in_production, shws.status AS show_status`).
		Joins("JOIN shows AS sh ON sh.id = s.show_id").
		Joins("LEFT JOIN season_watch_status AS sws ON sws.season_id = s.id AND sws.profile_id = ?", profileID).
		Joins("LEFT JOIN show_watch_status AS shws ON shws.show_id = sh.id AND shws.profile_id = ?", profileID).
		Where("s.id = ?", seasonID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load season %d: %w", seasonID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errors.NotFoundf("Season %d not found", seasonID)
	}
	return row.toDomain(), nil
}

// GetShow loads a show with the profile's stored status.
func (r *GormRepository) GetShow(ctx context.Context, profileID, showID int64) (*domain.ShowState, error) {
	var row showRow
	result := r.db.WithContext(ctx).
		Table("shows AS sh").
		Select("sh.id, sh.release_date, sh.in_production, shws.status").
		Joins("LEFT JOIN show_watch_status AS shws ON shws.show_id = sh.id AND shws.profile_id = ?", profileID).
		Where("sh.id = ?", showID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load show %d: %w", showID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errors.NotFoundf("Show %d not found", showID)
	}
	return &domain.ShowState{
		ID:           row.ID,
		ReleaseDate:  row.ReleaseDate,
		InProduction: row.InProduction,
		Status:       row.Status,
	}, nil
}

// GetMovie loads a movie with the profile's stored status.
func (r *GormRepository) GetMovie(ctx context.Context, profileID, movieID int64) (*domain.MovieState, error) {
	var row movieRow
	result := r.db.WithContext(ctx).
		Table("movies AS m").
		Select("m.id, m.release_date, mws.status").
		Joins("LEFT JOIN movie_watch_status AS mws ON mws.movie_id = m.id AND mws.profile_id = ?", profileID).
		Where("m.id = ?", movieID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load movie %d: %w", movieID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errors.NotFoundf("Movie %d not found", movieID)
	}
	return &domain.MovieState{ID: row.ID, ReleaseDate: row.ReleaseDate, Status: row.Status}, nil
}

// ListSeasonEpisodes returns every episode of a season in episode order.
func (r *GormRepository) ListSeasonEpisodes(ctx context.Context, profileID, seasonID int64) ([]domain.EpisodeState, error) {
	return r.listEpisodes(ctx, profileID, "e.season_id = ?", seasonID)
}

// ListShowEpisodes returns every episode of a show.
func (r *GormRepository) ListShowEpisodes(ctx context.Context, profileID, showID int64) ([]domain.EpisodeState, error) {
	return r.listEpisodes(ctx, profileID, "e.show_id = ?", showID)
}

func (r *GormRepository) listEpisodes(ctx context.Context, profileID int64, where string, id int64) ([]domain.EpisodeState, error) {
	var rows []episodeRow
	err := r.db.WithContext(ctx).
		Table("episodes AS e").
		Select("e.id, e.season_id, e.show_id, e.air_date, ews.status").
		Joins("LEFT JOIN episode_watch_status AS ews ON ews.episode_id = e.id AND ews.profile_id = ?", profileID).
		Where(where, id).
		Order("e.season_id, e.episode_number, e.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	out := make([]domain.EpisodeState, len(rows))
	for i, row := range rows {
		out[i] = domain.EpisodeState{
			ID:       row.ID,
			SeasonID: row.SeasonID,
			ShowID:   row.ShowID,
			AirDate:  row.AirDate,
			Status:   row.Status,
		}
	}
	return out, nil
}

// ListShowSeasons returns every season of a show in season order.
func (r *GormRepository) ListShowSeasons(ctx context.Context, profileID, showID int64) ([]domain.SeasonState, error) {
	var rows []seasonRow
	err := r.db.WithContext(ctx).
		Table("seasons AS s").
		Select("s.id, s.show_id, s.release_date, sws.status").
		Joins("LEFT JOIN season_watch_status AS sws ON sws.season_id = s.id AND sws.profile_id = ?", profileID).
		Where("s.show_id = ?", showID).
		Order("s.season_number, s.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}

	out := make([]domain.SeasonState, len(rows))
	for i, row := range rows {
		out[i] = domain.SeasonState{
			ID:          row.ID,
			ShowID:      row.ShowID,
			ReleaseDate: row.ReleaseDate,
			Status:      row.Status,
		}
	}
	return out, nil
}

// UpsertEpisodeStatuses writes all episode rows in a single statement.
func (r *GormRepository) UpsertEpisodeStatuses(ctx context.Context, profileID int64, writes []domain.EpisodeWrite) (int64, error) {
	now := r.now().UTC()
	rows := make([]EpisodeWatchStatus, len(writes))
	for i, w := range writes {
		rows[i] = EpisodeWatchStatus{ProfileID: profileID, EpisodeID: w.EpisodeID, Status: w.Status, UpdatedAt: now}
	}
	affected, err := repository.UpsertAll(ctx, r.db, rows, episodeConflict, statusUpdateColumns)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert episode statuses: %w", err)
	}
	return affected, nil
}

// UpsertSeasonStatuses writes all season rows in a single statement.
func (r *GormRepository) UpsertSeasonStatuses(ctx context.Context, profileID int64, writes []domain.SeasonWrite) (int64, error) {
	now := r.now().UTC()
	rows := make([]SeasonWatchStatus, len(writes))
	for i, w := range writes {
		rows[i] = SeasonWatchStatus{ProfileID: profileID, SeasonID: w.SeasonID, Status: w.Status, UpdatedAt: now}
	}
	affected, err := repository.UpsertAll(ctx, r.db, rows, seasonConflict, statusUpdateColumns)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert season statuses: %w", err)
	}
	return affected, nil
}

// UpsertShowStatus writes one show row.
func (r *GormRepository) UpsertShowStatus(ctx context.Context, profileID, showID int64, status domain.WatchStatus) (int64, error) {
	rows := []ShowWatchStatus{{ProfileID: profileID, ShowID: showID, Status: status, UpdatedAt: r.now().UTC()}}
	affected, err := repository.UpsertAll(ctx, r.db, rows, showConflict, statusUpdateColumns)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert show status: %w", err)
	}
	return affected, nil
}

// UpsertMovieStatus writes one movie row.
func (r *GormRepository) UpsertMovieStatus(ctx context.Context, profileID, movieID int64, status domain.WatchStatus) (int64, error) {
	rows := []MovieWatchStatus{{ProfileID: profileID, MovieID: movieID, Status: status, UpdatedAt: r.now().UTC()}}
	affected, err := repository.UpsertAll(ctx, r.db, rows, movieConflict, statusUpdateColumns)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert movie status: %w", err)
	}
	return affected, nil
}

// ExpireUnairedEpisodes moves the given episodes from UNAIRED to NOT_WATCHED
// in one statement. Rows holding any other status are not touched.
func (r *GormRepository) ExpireUnairedEpisodes(ctx context.Context, profileID int64, episodeIDs []int64) (int64, error) {
	if len(episodeIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&EpisodeWatchStatus{}).
		Where("profile_id = ? AND status = ? AND episode_id IN ?", profileID, domain.Unaired, episodeIDs).
		Updates(map[string]interface{}{
			"status":     domain.NotWatched,
			"updated_at": r.now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire unaired episodes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListProfileShowIDs returns the shows a profile has any status for.
func (r *GormRepository) ListProfileShowIDs(ctx context.Context, profileID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT show_id FROM show_watch_status WHERE profile_id = ?
		UNION
		SELECT e.show_id FROM episode_watch_status AS ews
		JOIN episodes AS e ON e.id = ews.episode_id
		WHERE ews.profile_id = ?
		ORDER BY show_id`, profileID, profileID).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list profile shows: %w", err)
	}
	return ids, nil
}

// ListProfileMovieIDs returns the movies a profile has a status for.
func (r *GormRepository) ListProfileMovieIDs(ctx context.Context, profileID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&MovieWatchStatus{}).
		Where("profile_id = ?", profileID).
		Order("movie_id").
		Pluck("movie_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list profile movies: %w", err)
	}
	return ids, nil
}

// CreateShow creates a new show.
func (r *GormRepository) CreateShow(ctx context.Context, show *Show) error {
	return repository.Create(ctx, r.db, show)
}

// CreateSeason creates a new season.
func (r *GormRepository) CreateSeason(ctx context.Context, season *Season) error {
	return repository.Create(ctx, r.db, season)
}

// CreateEpisode creates a new episode.
func (r *GormRepository) CreateEpisode(ctx context.Context, episode *Episode) error {
	return repository.Create(ctx, r.db, episode)
}

// CreateMovie creates a new movie.
func (r *GormRepository) CreateMovie(ctx context.Context, movie *Movie) error {
	return repository.Create(ctx, r.db, movie)
}

// GetEpisode retrieves an episode by ID.
func (r *GormRepository) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	episode, err := repository.FindByID[Episode](ctx, r.db, id)
	if errors.IsNotFound(err) {
		return nil, errors.NotFoundf("Episode %d not found", id)
	}
	return episode, err
}

// UpdateEpisodeAirDate changes an episode's air date.
func (r *GormRepository) UpdateEpisodeAirDate(ctx context.Context, id int64, airDate *time.Time) error {
	result := r.db.WithContext(ctx).Model(&Episode{}).Where("id = ?", id).Update("air_date", airDate)
	if result.Error != nil {
		return fmt.Errorf("failed to update episode air date: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundf("Episode %d not found", id)
	}
	return nil
}

// SetShowInProduction changes a show's in-production flag.
func (r *GormRepository) SetShowInProduction(ctx context.Context, id int64, inProduction bool) error {
	result := r.db.WithContext(ctx).Model(&Show{}).Where("id = ?", id).Update("in_production", inProduction)
	if result.Error != nil {
		return fmt.Errorf("failed to update show: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundf("Show %d not found", id)
	}
	return nil
}
