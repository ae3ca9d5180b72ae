package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/example/classroom-bot/internal/config"
	"github.com/example/classroom-bot/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// app holds what every subcommand needs once the environment is loaded.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout}
	var envFiles []string

	root := &cobra.Command{
		Use:           "classbot",
		Short:         "Discord bot for class schedules, homework and role menus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFiles...); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(stderr, cfg.LogLevel)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")

	root.AddCommand(
		newServeCommand(a),
		newRegisterCommand(a),
		newSeedCommand(a),
		newMigrateCommand(a),
		newImportCommand(a),
	)
	return root
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and answer interactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireServe(); err != nil {
				return err
			}
			return serve(cmd.Context(), a.cfg, a.logger)
		},
	}
}

func newRegisterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Publish the slash command catalogue",
		Long:  "Overwrites the application's slash commands. They are registered for DISCORD_GUILD_ID when set and globally otherwise.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Require(config.EnvBotToken, config.EnvAppID); err != nil {
				return err
			}
			n, err := registerCommands(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "registered %d commands\n", n)
			return nil
		},
	}
}

func newSeedCommand(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Append configuration list values and channels from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := config.LoadSeedFile(path)
			if err != nil {
				return err
			}
			added, err := seedConfig(cmd.Context(), a.cfg, a.logger, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added %d values\n", added)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "seed.yaml", "seed file to read")
	return cmd
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Store != config.StoreSQLite {
				return fmt.Errorf("migrate: store %q has no schema", a.cfg.Store)
			}
			if err := migrate(cmd.Context(), a.cfg, a.logger); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "database is up to date")
			return nil
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	var path, sheet string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Post and store class schedules from an xlsx timetable",
		Long:  "Reads the subject, date and time columns (plus optional professor, location, type and notes) of a timetable workbook and creates one schedule per row in the configured schedule channel.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Require(config.EnvBotToken); err != nil {
				return err
			}
			report, err := importSchedules(cmd.Context(), a.cfg, a.logger, path, sheet)
			if err != nil {
				return err
			}
			rejected := make([]int, 0, len(report.Rejected))
			for row := range report.Rejected {
				rejected = append(rejected, row)
			}
			sort.Ints(rejected)
			for _, row := range rejected {
				fmt.Fprintf(a.out, "row %d skipped: %s\n", row+1, report.Rejected[row])
			}
			fmt.Fprintf(a.out, "imported %d schedules\n", report.Created)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "Book1.xlsx", "workbook to read")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to read (default first sheet)")
	return cmd
}
