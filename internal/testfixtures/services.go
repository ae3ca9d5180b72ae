package testfixtures

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks and in-memory gateways.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Store       persistence.DocumentStore
	Mirror      *Mirror
	Roles       *Roles
	Activity    *Activity
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Store:       NewMemoryStore(),
		Mirror:      NewMirror(),
		Roles:       NewRoles(),
		Activity:    &Activity{},
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithStore overrides the document store used by the factory.
func WithStore(store persistence.DocumentStore) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Store = store
	}
}

// WithLogger overrides the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles the application services sharing one store and one set
// of fakes.
type Services struct {
	Wizards   *application.WizardManager
	Config    *application.ConfigService
	Schedules *application.ScheduleService
	Homework  *application.HomeworkService
	Dropdowns *application.DropdownService
	Status    *application.StatusService
}

// Build wires every service.
func (f *ServiceFactory) Build() Services {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()
	wizards := application.NewWizardManager(nil, 15*time.Minute, now, f.Logger)
	config := application.NewConfigService(f.Store, f.Logger)
	return Services{
		Wizards:   wizards,
		Config:    config,
		Schedules: application.NewScheduleService(f.Store, f.Mirror, wizards, config, ids, now, f.Logger),
		Homework:  application.NewHomeworkService(f.Store, f.Mirror, wizards, config, ids, now, f.Logger),
		Dropdowns: application.NewDropdownService(f.Store, f.Mirror, f.Roles, ids, now, f.Logger),
		Status:    application.NewStatusService(f.Store, f.Activity, f.Logger),
	}
}

// SeedConfig writes cfg through the configuration service.
func (s Services) SeedConfig(ctx context.Context, cfg application.ScheduleConfig) error {
	lists := make(map[application.ConfigList][]string)
	for _, list := range application.ConfigLists() {
		lists[list] = cfg.List(list)
	}
	channels := map[application.ChannelTarget]string{
		application.ChannelSchedule: cfg.ChannelID,
		application.ChannelHomework: cfg.HomeworkChannelID,
		application.ChannelReminder: cfg.ReminderChannelID,
	}
	_, err := s.Config.Seed(ctx, lists, channels)
	return err
}
