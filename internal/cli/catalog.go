package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/narwhalmedia/watchtrack/internal/container"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchtrack/pkg/errors"
)

const dateLayout = "2006-01-02"

// CatalogFile is the YAML layout accepted by "catalog import".
type CatalogFile struct {
	Shows  []CatalogShow  `yaml:"shows"`
	Movies []CatalogMovie `yaml:"movies"`
}

type CatalogShow struct {
	ID           int64           `yaml:"id"`
	Title        string          `yaml:"title"`
	ReleaseDate  *time.Time      `yaml:"release_date"`
	InProduction bool            `yaml:"in_production"`
	Seasons      []CatalogSeason `yaml:"seasons"`
}

type CatalogSeason struct {
	ID          int64            `yaml:"id"`
	Number      int              `yaml:"number"`
	Name        string           `yaml:"name"`
	ReleaseDate *time.Time       `yaml:"release_date"`
	Episodes    []CatalogEpisode `yaml:"episodes"`
}

type CatalogEpisode struct {
	ID      int64      `yaml:"id"`
	Number  int        `yaml:"number"`
	Title   string     `yaml:"title"`
	AirDate *time.Time `yaml:"air_date"`
}

type CatalogMovie struct {
	ID          int64      `yaml:"id"`
	Title       string     `yaml:"title"`
	ReleaseDate *time.Time `yaml:"release_date"`
}

// importStats counts created and already-present catalog rows.
type importStats struct {
	created int
	skipped int
}

func (s *importStats) track(err error) error {
	switch {
	case err == nil:
		s.created++
	case errors.IsConflict(err):
		s.skipped++
	default:
		return err
	}
	return nil
}

// ImportCatalog creates every show, season, episode and movie in f. Rows that
// already exist are skipped.
func ImportCatalog(ctx context.Context, catalog repository.CatalogRepository, f *CatalogFile) (created, skipped int, err error) {
	var stats importStats

	for _, sh := range f.Shows {
		show := &repository.Show{ID: sh.ID, Title: sh.Title, ReleaseDate: sh.ReleaseDate, InProduction: sh.InProduction}
		if err := stats.track(catalog.CreateShow(ctx, show)); err != nil {
			return 0, 0, fmt.Errorf("show %d: %w", sh.ID, err)
		}
		for _, se := range sh.Seasons {
			season := &repository.Season{ID: se.ID, ShowID: sh.ID, SeasonNumber: se.Number, Name: se.Name, ReleaseDate: se.ReleaseDate}
			if err := stats.track(catalog.CreateSeason(ctx, season)); err != nil {
				return 0, 0, fmt.Errorf("season %d: %w", se.ID, err)
			}
			for _, ep := range se.Episodes {
				episode := &repository.Episode{ID: ep.ID, SeasonID: se.ID, ShowID: sh.ID, EpisodeNumber: ep.Number, Title: ep.Title, AirDate: ep.AirDate}
				if err := stats.track(catalog.CreateEpisode(ctx, episode)); err != nil {
					return 0, 0, fmt.Errorf("episode %d: %w", ep.ID, err)
				}
			}
		}
	}

	for _, mv := range f.Movies {
		movie := &repository.Movie{ID: mv.ID, Title: mv.Title, ReleaseDate: mv.ReleaseDate}
		if err := stats.track(catalog.CreateMovie(ctx, movie)); err != nil {
			return 0, 0, fmt.Errorf("movie %d: %w", mv.ID, err)
		}
	}

	return stats.created, stats.skipped, nil
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage show and movie content",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import [file]",
		Short: "Import shows and movies from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read catalog: %w", err)
			}
			var f CatalogFile
			if err := yaml.Unmarshal(data, &f); err != nil {
				return fmt.Errorf("failed to parse catalog: %w", err)
			}

			created, skipped, err := ImportCatalog(cmd.Context(), app.Catalog, &f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows (%d already present)\n", created, skipped)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "air-date [episode-id] [YYYY-MM-DD|none]",
		Short: "Change an episode's air date",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var airDate *time.Time
			if args[1] != "none" {
				t, err := time.Parse(dateLayout, args[1])
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", args[1], err)
				}
				airDate = &t
			}

			if err := app.Catalog.UpdateEpisodeAirDate(cmd.Context(), id, airDate); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Episode %d air date set to %s\n", id, args[1])
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "production [show-id] [true|false]",
		Short: "Mark a show as in production or ended",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			inProduction, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid flag %q: %w", args[1], err)
			}

			if err := app.Catalog.SetShowInProduction(cmd.Context(), id, inProduction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Show %d in production: %t\n", id, inProduction)
			return nil
		}),
	})

	return cmd
}
