package domain

import "time"

// EpisodeState is an episode joined with the profile's stored status.
type EpisodeState struct {
	ID       int64
	SeasonID int64
	ShowID   int64
	AirDate  *time.Time
	Status   WatchStatus
}

// SeasonState is a season joined with the profile's stored status.
type SeasonState struct {
	ID          int64
	ShowID      int64
	ReleaseDate *time.Time
	Status      WatchStatus
}

// ShowState is a show joined with the profile's stored status.
type ShowState struct {
	ID           int64
	ReleaseDate  *time.Time
	InProduction bool
	Status       WatchStatus
}

// MovieState is a movie joined with the profile's stored status.
type MovieState struct {
	ID          int64
	ReleaseDate *time.Time
	Status      WatchStatus
}

// EpisodeContext is an episode with its season and show.
type EpisodeContext struct {
	Episode EpisodeState
	Season  SeasonState
	Show    ShowState
}

// SeasonContext is a season with its show.
type SeasonContext struct {
	Season SeasonState
	Show   ShowState
}

// EpisodeWrite is one planned row of an episode status upsert.
type EpisodeWrite struct {
	EpisodeID int64
	Status    WatchStatus
}

// SeasonWrite is one planned row of a season status upsert.
type SeasonWrite struct {
	SeasonID int64
	Status   WatchStatus
}
