package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchtrack/internal/container"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
)

type setFunc func(s *service.WatchStatusService, ctx context.Context, accountID, profileID, id int64, status domain.WatchStatus) (*service.UpdateResponse, error)

type reconcileFunc func(s *service.WatchStatusService, ctx context.Context, accountID, profileID, id int64) (*service.UpdateResponse, error)

func newSetCmd(opts *rootOptions, kind domain.ContentKind, set setFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "set [id] [status]",
		Short: fmt.Sprintf("Set a %s's watch status", kind),
		Long: fmt.Sprintf(`Set a %s's watch status for a profile and propagate the change.

Status is one of NOT_WATCHED, WATCHING, WATCHED or UP_TO_DATE.`, kind),
		Args: cobra.ExactArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := domain.ParseWatchStatus(args[1])
			if err != nil {
				return err
			}
			if err := opts.requireProfile(); err != nil {
				return err
			}

			resp, err := set(app.WatchStatus, cmd.Context(), opts.accountID, opts.profileID, id, status)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp, opts.jsonOutput)
		}),
	}
}

func newReconcileCmd(opts *rootOptions, kind domain.ContentKind, reconcile reconcileFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [id]",
		Short: fmt.Sprintf("Recalculate a %s's watch status from current content", kind),
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.requireProfile(); err != nil {
				return err
			}

			resp, err := reconcile(app.WatchStatus, cmd.Context(), opts.accountID, opts.profileID, id)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp, opts.jsonOutput)
		}),
	}
}

func newEpisodeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Episode watch status",
	}
	cmd.AddCommand(newSetCmd(opts, domain.KindEpisode, (*service.WatchStatusService).UpdateEpisodeWatchStatus))
	return cmd
}

func newSeasonCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Season watch status",
	}
	cmd.AddCommand(newSetCmd(opts, domain.KindSeason, (*service.WatchStatusService).UpdateSeasonWatchStatus))
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show watch status",
	}
	cmd.AddCommand(newSetCmd(opts, domain.KindShow, (*service.WatchStatusService).UpdateShowWatchStatus))
	cmd.AddCommand(newReconcileCmd(opts, domain.KindShow, (*service.WatchStatusService).CheckAndUpdateShowWatchStatus))
	return cmd
}

func newMovieCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movie",
		Short: "Movie watch status",
	}
	cmd.AddCommand(newSetCmd(opts, domain.KindMovie, (*service.WatchStatusService).UpdateMovieWatchStatus))
	cmd.AddCommand(newReconcileCmd(opts, domain.KindMovie, (*service.WatchStatusService).CheckAndUpdateMovieWatchStatus))
	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile-wide operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Recalculate every show and movie the profile tracks",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			if err := opts.requireProfile(); err != nil {
				return err
			}

			resp, err := app.WatchStatus.ReconcileProfile(cmd.Context(), opts.accountID, opts.profileID)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp, opts.jsonOutput)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List the status of every show and movie the profile tracks",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			if err := opts.requireProfile(); err != nil {
				return err
			}

			view, err := app.Profiles.Get(cmd.Context(), opts.accountID, opts.profileID)
			if err != nil {
				return err
			}
			return printProfileView(cmd.OutOrStdout(), view, opts.jsonOutput)
		}),
	})
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
