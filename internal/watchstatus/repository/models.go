package repository

import (
	"time"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
)

// Show represents a TV show in the catalog.
type Show struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false"`
	Title        string `gorm:"not null"`
	ReleaseDate  *time.Time
	InProduction bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	Seasons []Season `gorm:"foreignKey:ShowID;constraint:OnDelete:CASCADE"`
}

// Season represents one season of a show.
type Season struct {
	ID           int64 `gorm:"primaryKey;autoIncrement:false"`
	ShowID       int64 `gorm:"not null;index"`
	SeasonNumber int   `gorm:"not null"`
	Name         string
	ReleaseDate  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	Episodes []Episode `gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
}

// Episode represents a TV show episode.
type Episode struct {
	ID            int64 `gorm:"primaryKey;autoIncrement:false"`
	SeasonID      int64 `gorm:"not null;index"`
	ShowID        int64 `gorm:"not null;index"`
	EpisodeNumber int   `gorm:"not null"`
	Title         string
	AirDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Movie represents a standalone movie.
type Movie struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	Title       string `gorm:"not null"`
	ReleaseDate *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EpisodeWatchStatus is a profile's status for one episode.
type EpisodeWatchStatus struct {
	ProfileID int64              `gorm:"primaryKey;autoIncrement:false"`
	EpisodeID int64              `gorm:"primaryKey;autoIncrement:false"`
	Status    domain.WatchStatus `gorm:"type:varchar(20);not null"`
	UpdatedAt time.Time

	Episode Episode `gorm:"foreignKey:EpisodeID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default pluralized table name.
func (EpisodeWatchStatus) TableName() string { return "episode_watch_status" }

// SeasonWatchStatus is a profile's derived status for one season.
type SeasonWatchStatus struct {
	ProfileID int64              `gorm:"primaryKey;autoIncrement:false"`
	SeasonID  int64              `gorm:"primaryKey;autoIncrement:false"`
	Status    domain.WatchStatus `gorm:"type:varchar(20);not null"`
	UpdatedAt time.Time

	Season Season `gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
}

func (SeasonWatchStatus) TableName() string { return "season_watch_status" }

// ShowWatchStatus is a profile's derived status for one show.
type ShowWatchStatus struct {
	ProfileID int64              `gorm:"primaryKey;autoIncrement:false"`
	ShowID    int64              `gorm:"primaryKey;autoIncrement:false"`
	Status    domain.WatchStatus `gorm:"type:varchar(20);not null"`
	UpdatedAt time.Time

	Show Show `gorm:"foreignKey:ShowID;constraint:OnDelete:CASCADE"`
}

func (ShowWatchStatus) TableName() string { return "show_watch_status" }

// MovieWatchStatus is a profile's status for one movie.
type MovieWatchStatus struct {
	ProfileID int64              `gorm:"primaryKey;autoIncrement:false"`
	MovieID   int64              `gorm:"primaryKey;autoIncrement:false"`
	Status    domain.WatchStatus `gorm:"type:varchar(20);not null"`
	UpdatedAt time.Time

	Movie Movie `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
}

func (MovieWatchStatus) TableName() string { return "movie_watch_status" }

// episodeContextRow is the flat result of the episode context join.
type episodeContextRow struct {
	EpisodeID         int64
	SeasonID          int64
	ShowID            int64
	AirDate           *time.Time
	EpisodeStatus     domain.WatchStatus
	SeasonReleaseDate *time.Time
	SeasonStatus      domain.WatchStatus
	ShowReleaseDate   *time.Time
	InProduction      bool
	ShowStatus        domain.WatchStatus
}

func (r episodeContextRow) toDomain() *domain.EpisodeContext {
	return &domain.EpisodeContext{
		Episode: domain.EpisodeState{
			ID:       r.EpisodeID,
			SeasonID: r.SeasonID,
			ShowID:   r.ShowID,
			AirDate:  r.AirDate,
			Status:   r.EpisodeStatus,
		},
		Season: domain.SeasonState{
			ID:          r.SeasonID,
			ShowID:      r.ShowID,
			ReleaseDate: r.SeasonReleaseDate,
			Status:      r.SeasonStatus,
		},
		Show: domain.ShowState{
			ID:           r.ShowID,
			ReleaseDate:  r.ShowReleaseDate,
			InProduction: r.InProduction,
			Status:       r.ShowStatus,
		},
	}
}

type seasonContextRow struct {
	SeasonID          int64
	ShowID            int64
	SeasonReleaseDate *time.Time
	SeasonStatus      domain.WatchStatus
	ShowReleaseDate   *time.Time
	InProduction      bool
	ShowStatus        domain.WatchStatus
}

func (r seasonContextRow) toDomain() *domain.SeasonContext {
	return &domain.SeasonContext{
		Season: domain.SeasonState{
			ID:          r.SeasonID,
			ShowID:      r.ShowID,
			ReleaseDate: r.SeasonReleaseDate,
			Status:      r.SeasonStatus,
		},
		Show: domain.ShowState{
			ID:           r.ShowID,
			ReleaseDate:  r.ShowReleaseDate,
			InProduction: r.InProduction,
			Status:       r.ShowStatus,
		},
	}
}

type episodeRow struct {
	ID       int64
	SeasonID int64
	ShowID   int64
	AirDate  *time.Time
	Status   domain.WatchStatus
}

type seasonRow struct {
	ID          int64
	ShowID      int64
	ReleaseDate *time.Time
	Status      domain.WatchStatus
}

type showRow struct {
	ID           int64
	ReleaseDate  *time.Time
	InProduction bool
	Status       domain.WatchStatus
}

type movieRow struct {
	ID          int64
	ReleaseDate *time.Time
	Status      domain.WatchStatus
}
