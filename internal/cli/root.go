package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchtrack/internal/container"
	"github.com/narwhalmedia/watchtrack/pkg/config"
	"github.com/narwhalmedia/watchtrack/pkg/logger"
)

// AppFactory builds the application for a command invocation.
type AppFactory func(configPath string) (*container.App, func(), error)

// DefaultAppFactory loads configuration and wires the application.
func DefaultAppFactory(configPath string) (*container.App, func(), error) {
	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewFromConfig(cfg.Logger.ToLoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app, cleanup, err := container.InitializeApp(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return app, func() {
		cleanup()
		_ = log.Sync()
	}, nil
}

type rootOptions struct {
	configPath string
	accountID  int64
	profileID  int64
	jsonOutput bool

	newApp AppFactory
}

// NewRootCmd creates the watchtrack command tree.
func NewRootCmd(newApp AppFactory) *cobra.Command {
	opts := &rootOptions{newApp: newApp}

	cmd := &cobra.Command{
		Use:   "watchtrack",
		Short: "Track and propagate watch status for shows and movies",
		Long: `watchtrack records per-profile watch status for episodes, seasons, shows
and movies. Every change propagates up the show hierarchy in one transaction.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a config file")
	flags.Int64Var(&opts.accountID, "account", 0, "account id owning the profile")
	flags.Int64VarP(&opts.profileID, "profile", "p", 0, "profile id")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newEpisodeCmd(opts))
	cmd.AddCommand(newSeasonCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newMovieCmd(opts))
	cmd.AddCommand(newProfileCmd(opts))
	cmd.AddCommand(newCatalogCmd(opts))

	return cmd
}

type appRunE func(cmd *cobra.Command, args []string, app *container.App) error

// withApp builds the app for one command run and releases it afterwards.
func (o *rootOptions) withApp(run appRunE) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := o.newApp(o.configPath)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer cleanup()
		return run(cmd, args, app)
	}
}

func (o *rootOptions) requireProfile() error {
	if o.profileID <= 0 {
		return fmt.Errorf("--profile is required")
	}
	return nil
}
