package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchtrack/internal/container"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *container.App) error {
			out := cmd.OutOrStdout()

			if dryRun {
				pending, err := app.Migrator.GetPendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(out, "No pending migrations")
					return nil
				}
				for _, m := range pending {
					fmt.Fprintf(out, "%s\t%s\n", m.Version, m.Name)
				}
				return nil
			}

			applied, err := app.Migrator.Migrate()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Applied %d migrations\n", applied)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	return cmd
}
