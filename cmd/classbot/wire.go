package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/config"
	"github.com/example/classroom-bot/internal/discord"
	httptransport "github.com/example/classroom-bot/internal/http"
	"github.com/example/classroom-bot/internal/persistence"
	"github.com/example/classroom-bot/internal/persistence/filestore"
	"github.com/example/classroom-bot/internal/persistence/sqlite"
	"github.com/example/classroom-bot/internal/reminder"
	"github.com/example/classroom-bot/internal/spreadsheet"
)

const (
	sweepInterval    = time.Minute
	reminderInterval = time.Minute
	shutdownTimeout  = 10 * time.Second
)

// openStore opens the configured document store. SQLite stores are migrated
// before they are returned.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.DocumentStore, func() error, error) {
	switch cfg.Store {
	case config.StoreFile:
		store, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "using file store", "dir", cfg.DataDir)
		return store, func() error { return nil }, nil
	case config.StoreSQLite:
		storage, err := sqlite.Open(cfg.SQLiteDSN, sqlite.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, nil, err
		}
		logger.InfoContext(ctx, "using sqlite store")
		return storage, storage.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	_, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return closeStore()
}

func newID() string {
	return uuid.NewString()
}

// services is the application layer wired to one store and one gateway.
type services struct {
	wizards   *application.WizardManager
	config    *application.ConfigService
	schedules *application.ScheduleService
	homework  *application.HomeworkService
	dropdowns *application.DropdownService
	status    *application.StatusService
}

func newServices(cfg config.Config, store persistence.DocumentStore, gateway *discord.Gateway, logger *slog.Logger) services {
	now := time.Now
	wizards := application.NewWizardManager(nil, cfg.WizardTTL, now, logger)
	configService := application.NewConfigService(store, logger)
	return services{
		wizards:   wizards,
		config:    configService,
		schedules: application.NewScheduleService(store, gateway, wizards, configService, newID, now, logger),
		homework:  application.NewHomeworkService(store, gateway, wizards, configService, newID, now, logger),
		dropdowns: application.NewDropdownService(store, gateway, gateway, newID, now, logger),
		status:    application.NewStatusService(store, gateway, logger),
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	session, err := discord.NewSession(cfg.BotToken)
	if err != nil {
		return err
	}
	gateway := discord.NewGateway(session)
	svc := newServices(cfg, store, gateway, logger)

	router := discord.NewRouter(discord.Services{
		Schedules: svc.schedules,
		Homework:  svc.homework,
		Dropdowns: svc.dropdowns,
		Config:    svc.config,
		Status:    svc.status,
	}, cfg.OwnerID, logger)
	bot := discord.NewBot(session, router, svc.status, logger)

	notifier := reminder.NewNotifier(svc.schedules, svc.config, gateway, reminder.Config{
		Lead:              cfg.ReminderLead,
		FallbackChannelID: cfg.ReminderChannelID,
		Location:          cfg.Location,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})
	g.Go(func() error {
		svc.wizards.Run(gctx, sweepInterval)
		return nil
	})
	g.Go(func() error {
		notifier.Run(gctx, reminderInterval)
		return nil
	})
	if cfg.InteractionsAddr != "" {
		server := newInteractionServer(cfg, router, session, logger)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			logger.InfoContext(gctx, "interactions endpoint listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("interactions endpoint: %w", err)
			}
			return nil
		})
	}

	logger.InfoContext(ctx, "classbot starting", "store", cfg.Store, "reminder_lead", cfg.ReminderLead.String())
	err = g.Wait()
	logger.Info("classbot stopped")
	return err
}

func newInteractionServer(cfg config.Config, router *discord.Router, session *discordgo.Session, logger *slog.Logger) *http.Server {
	finisher := httptransport.FinisherFunc(func(ctx context.Context, i *discordgo.Interaction, reply discord.Reply) error {
		return discord.Finish(ctx, session, i, reply)
	})
	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Interactions: httptransport.NewInteractionHandler(router, finisher, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.VerifySignature(cfg.PublicKey, logger),
		},
	})
	return &http.Server{
		Addr:              cfg.InteractionsAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func registerCommands(ctx context.Context, cfg config.Config, logger *slog.Logger) (int, error) {
	session, err := discord.NewSession(cfg.BotToken)
	if err != nil {
		return 0, err
	}
	created, err := discord.RegisterCommands(ctx, session, cfg.AppID, cfg.GuildID)
	if err != nil {
		return 0, err
	}
	scope := "global"
	if cfg.GuildID != "" {
		scope = "guild"
	}
	logger.InfoContext(ctx, "commands registered", "count", len(created), "scope", scope)
	return len(created), nil
}

func seedConfig(ctx context.Context, cfg config.Config, logger *slog.Logger, seed config.Seed) (int, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.ErrorContext(ctx, "failed to close storage", "error", cerr)
		}
	}()

	return application.NewConfigService(store, logger).Seed(ctx, seed.Lists(), seed.ChannelTargets())
}

// importOperator is the principal bulk imports run as.
var importOperator = application.Principal{UserID: "cli-import", IsAdmin: true}

// importSchedules posts and stores one schedule per spreadsheet row.
func importSchedules(ctx context.Context, cfg config.Config, logger *slog.Logger, path, sheet string) (application.ImportReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return application.ImportReport{}, fmt.Errorf("import: %w", err)
	}
	defer file.Close()
	rows, err := spreadsheet.ReadSchedules(file, sheet)
	if err != nil {
		return application.ImportReport{}, err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return application.ImportReport{}, err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.ErrorContext(ctx, "failed to close storage", "error", cerr)
		}
	}()

	session, err := discord.NewSession(cfg.BotToken)
	if err != nil {
		return application.ImportReport{}, err
	}
	svc := newServices(cfg, store, discord.NewGateway(session), logger)
	return svc.schedules.Import(ctx, importOperator, rows)
}
