package domain

import "time"

// EpisodeInput is what the calculator needs to know about an episode.
type EpisodeInput struct {
	AirDate        *time.Time
	ExistingStatus WatchStatus
}

// ChildStatus is the effective status of one child of a season or show.
type ChildStatus struct {
	ID          int64
	WatchStatus WatchStatus
}

// SeasonInput describes a season by its release date and its episodes'
// effective statuses.
type SeasonInput struct {
	ID          int64
	ReleaseDate *time.Time
	Episodes    []ChildStatus
}

// ShowInput describes a show by its seasons' statuses.
type ShowInput struct {
	ID           int64
	InProduction bool
	Seasons      []ChildStatus
}

// StatusCalculator derives watch statuses from children and air dates.
// It holds no state beyond its clock and is safe for concurrent use.
type StatusCalculator struct {
	now func() time.Time
}

// NewStatusCalculator returns a calculator using now as its clock.
// A nil clock means time.Now.
func NewStatusCalculator(now func() time.Time) *StatusCalculator {
	if now == nil {
		now = time.Now
	}
	return &StatusCalculator{now: now}
}

// Now returns the calculator's current time.
func (c *StatusCalculator) Now() time.Time {
	return c.now()
}

// IsUnaired reports whether content with the given air date has not aired yet.
func (c *StatusCalculator) IsUnaired(airDate *time.Time) bool {
	return airDate == nil || airDate.After(c.now())
}

// CalculateEpisodeStatus returns UNAIRED for content that has not aired and
// otherwise the user's status, defaulting to NOT_WATCHED. It never demotes a
// watched episode.
func (c *StatusCalculator) CalculateEpisodeStatus(episode EpisodeInput) WatchStatus {
	if c.IsUnaired(episode.AirDate) {
		return Unaired
	}
	switch episode.ExistingStatus {
	case NotWatched, Watching, Watched:
		return episode.ExistingStatus
	case UpToDate:
		return Watched
	case StatusNone, Unaired:
		return NotWatched
	}
	return NotWatched
}

// CalculateMovieStatus applies the episode rule to a movie. Movies only ever
// hold UNAIRED, NOT_WATCHED or WATCHED.
func (c *StatusCalculator) CalculateMovieStatus(releaseDate *time.Time, existing WatchStatus) WatchStatus {
	status := c.CalculateEpisodeStatus(EpisodeInput{AirDate: releaseDate, ExistingStatus: existing})
	if status == Watching {
		return NotWatched
	}
	return status
}

// CalculateSeasonStatus derives a season's status from its episodes. A season
// whose known release date is still ahead is UNAIRED whatever its episodes say.
func (c *StatusCalculator) CalculateSeasonStatus(season SeasonInput) WatchStatus {
	if season.ReleaseDate != nil && season.ReleaseDate.After(c.now()) {
		return Unaired
	}
	return derive(season.Episodes, false)
}

// CalculateShowStatus derives a show's status from its seasons. A show in
// production is treated as expecting more content.
func (c *StatusCalculator) CalculateShowStatus(show ShowInput) WatchStatus {
	return derive(show.Seasons, show.InProduction)
}

// EffectiveEpisodes maps stored episode rows to the statuses a season is derived from.
func (c *StatusCalculator) EffectiveEpisodes(episodes []EpisodeState) []ChildStatus {
	out := make([]ChildStatus, 0, len(episodes))
	for _, e := range episodes {
		out = append(out, ChildStatus{
			ID:          e.ID,
			WatchStatus: c.CalculateEpisodeStatus(EpisodeInput{AirDate: e.AirDate, ExistingStatus: e.Status}),
		})
	}
	return out
}

// SeasonFromEpisodes builds the calculator input for season from episodes,
// ignoring episodes of other seasons.
func (c *StatusCalculator) SeasonFromEpisodes(season SeasonState, episodes []EpisodeState) SeasonInput {
	own := make([]EpisodeState, 0, len(episodes))
	for _, e := range episodes {
		if e.SeasonID == season.ID {
			own = append(own, e)
		}
	}
	return SeasonInput{ID: season.ID, ReleaseDate: season.ReleaseDate, Episodes: c.EffectiveEpisodes(own)}
}

// ShowFromSeasons builds the calculator input for show from stored season statuses.
func ShowFromSeasons(show ShowState, seasons []SeasonState) ShowInput {
	children := make([]ChildStatus, 0, len(seasons))
	for _, s := range seasons {
		children = append(children, ChildStatus{ID: s.ID, WatchStatus: s.Status})
	}
	return ShowInput{ID: show.ID, InProduction: show.InProduction, Seasons: children}
}

// FillUnderivedSeasons returns seasons with every StatusNone entry replaced by
// the status derived from episodes. Seasons that already hold a status are
// returned as stored.
func (c *StatusCalculator) FillUnderivedSeasons(seasons []SeasonState, episodes []EpisodeState) []SeasonState {
	out := make([]SeasonState, len(seasons))
	for i, s := range seasons {
		if s.Status == StatusNone {
			s.Status = c.CalculateSeasonStatus(c.SeasonFromEpisodes(s, episodes))
		}
		out[i] = s
	}
	return out
}

// PlanEpisodeFanOut decides what each episode becomes when a parent is
// manually set to target. Unaired episodes are left alone, as are all
// episodes when the target is WATCHING.
func (c *StatusCalculator) PlanEpisodeFanOut(episodes []EpisodeState, target WatchStatus) []EpisodeWrite {
	var episodeTarget WatchStatus
	switch target {
	case Watched, UpToDate:
		episodeTarget = Watched
	case NotWatched:
		episodeTarget = NotWatched
	case Watching, StatusNone, Unaired:
		return nil
	default:
		return nil
	}

	writes := make([]EpisodeWrite, 0, len(episodes))
	for _, e := range episodes {
		if c.IsUnaired(e.AirDate) {
			continue
		}
		writes = append(writes, EpisodeWrite{EpisodeID: e.ID, Status: episodeTarget})
	}
	return writes
}

// ExpiredUnaired returns the ids of episodes stored as UNAIRED whose air date
// has passed.
func (c *StatusCalculator) ExpiredUnaired(episodes []EpisodeState) []int64 {
	var ids []int64
	for _, e := range episodes {
		if e.Status == Unaired && !c.IsUnaired(e.AirDate) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

type tally struct {
	total, unaired, notWatched, watching, upToDate, watched int
}

func count(children []ChildStatus) tally {
	var t tally
	for _, child := range children {
		t.total++
		switch child.WatchStatus {
		case Unaired:
			t.unaired++
		case NotWatched, StatusNone:
			t.notWatched++
		case Watching:
			t.watching++
		case UpToDate:
			t.upToDate++
		case Watched:
			t.watched++
		}
	}
	return t
}

// derive applies the tiered rule shared by seasons and shows.
func derive(children []ChildStatus, moreExpected bool) WatchStatus {
	t := count(children)
	if t.total == 0 || t.unaired == t.total {
		return Unaired
	}

	aired := t.total - t.unaired
	if t.watched+t.upToDate == aired {
		if moreExpected || t.unaired > 0 || t.upToDate > 0 {
			return UpToDate
		}
		return Watched
	}
	if t.watched+t.watching+t.upToDate > 0 {
		return Watching
	}
	return NotWatched
}
