package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
)

// Now is the reference clock used by fixtures
var Now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// Clock returns Now
func Clock() time.Time { return Now }

// DaysAgo returns a date relative to Now. Negative values are in the future.
func DaysAgo(days int) *time.Time {
	t := Now.AddDate(0, 0, -days)
	return &t
}

// Catalog seeds shows, seasons, episodes and movies
type Catalog struct {
	t    *testing.T
	repo repository.CatalogRepository
}

// NewCatalog creates a catalog seeder over repo
func NewCatalog(t *testing.T, repo repository.CatalogRepository) *Catalog {
	return &Catalog{t: t, repo: repo}
}

// Show creates a show
func (c *Catalog) Show(id int64, inProduction bool) *Catalog {
	c.t.Helper()
	err := c.repo.CreateShow(context.Background(), &repository.Show{
		ID:           id,
		Title:        "Show",
		ReleaseDate:  DaysAgo(365),
		InProduction: inProduction,
	})
	if err != nil {
		c.t.Fatalf("Failed to create show %d: %v", id, err)
	}
	return c
}

// Season creates a season of showID
func (c *Catalog) Season(id, showID int64, number int) *Catalog {
	c.t.Helper()
	err := c.repo.CreateSeason(context.Background(), &repository.Season{
		ID:           id,
		ShowID:       showID,
		SeasonNumber: number,
		ReleaseDate:  DaysAgo(300),
	})
	if err != nil {
		c.t.Fatalf("Failed to create season %d: %v", id, err)
	}
	return c
}

// Episode creates an episode. A nil airDate means not yet scheduled.
func (c *Catalog) Episode(id, seasonID, showID int64, number int, airDate *time.Time) *Catalog {
	c.t.Helper()
	err := c.repo.CreateEpisode(context.Background(), &repository.Episode{
		ID:            id,
		SeasonID:      seasonID,
		ShowID:        showID,
		EpisodeNumber: number,
		AirDate:       airDate,
	})
	if err != nil {
		c.t.Fatalf("Failed to create episode %d: %v", id, err)
	}
	return c
}

// Movie creates a movie
func (c *Catalog) Movie(id int64, releaseDate *time.Time) *Catalog {
	c.t.Helper()
	err := c.repo.CreateMovie(context.Background(), &repository.Movie{
		ID:          id,
		Title:       "Movie",
		ReleaseDate: releaseDate,
	})
	if err != nil {
		c.t.Fatalf("Failed to create movie %d: %v", id, err)
	}
	return c
}
