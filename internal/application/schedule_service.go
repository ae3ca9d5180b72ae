package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/classroom-bot/internal/persistence"
)

// ScheduleService manages class schedule announcements.
type ScheduleService struct {
	records *RecordStore[ScheduleFields]
	builder builder
	logger  *slog.Logger
}

// ScheduleEditableFields lists the fields accepted by Edit.
var ScheduleEditableFields = []string{"name", "professor", "location", "date", "time", "type", "description"}

// NewScheduleService constructs a schedule service.
func NewScheduleService(store persistence.DocumentStore, mirror MessageMirror, wizards *WizardManager, config *ConfigService, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	logger = defaultLogger(logger)
	schema := RecordSchema[ScheduleFields]{
		Kind:     "schedule",
		Document: persistence.DocumentSchedules,
		IDPrefix: "class",
		Render:   RenderSchedule,
		SetField: setScheduleField,
	}
	return &ScheduleService{
		records: NewRecordStore(schema, store, mirror, idGenerator, now, logger),
		builder: builder{kind: WizardSchedule, wizards: wizards, config: config},
		logger:  logger,
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// OpenBuilder starts the schedule builder for an administrator.
func (s *ScheduleService) OpenBuilder(ctx context.Context, principal Principal) (StepView, error) {
	return s.builder.open(ctx, principal)
}

// Choose records a builder selection.
func (s *ScheduleService) Choose(ctx context.Context, principal Principal, field, value string) error {
	return s.builder.choose(ctx, principal, field, value)
}

// Next advances the builder.
func (s *ScheduleService) Next(ctx context.Context, principal Principal) (StepView, error) {
	return s.builder.next(ctx, principal)
}

// BuilderView returns the current step of the principal's builder.
func (s *ScheduleService) BuilderView(ctx context.Context, principal Principal) (StepView, error) {
	return s.builder.current(ctx, principal)
}

// CancelBuilder abandons the principal's builder session.
func (s *ScheduleService) CancelBuilder(ctx context.Context, principal Principal) {
	s.builder.cancel(ctx, principal)
}

// CompleteBuilder records the details step and creates the schedule.
func (s *ScheduleService) CompleteBuilder(ctx context.Context, principal Principal, values map[string]string) (Schedule, error) {
	finalized, err := s.builder.complete(ctx, principal, values)
	if err != nil {
		return Schedule{}, err
	}
	return s.CreateFromWizard(ctx, finalized)
}

// CreateFromWizard posts and persists the schedule described by a finished builder.
func (s *ScheduleService) CreateFromWizard(ctx context.Context, finalized FinalizedWizard) (Schedule, error) {
	if finalized.Kind != WizardSchedule {
		return Schedule{}, fieldError("kind", "not a schedule builder")
	}
	f := finalized.Fields
	fields := ScheduleFields{
		Name:        f["classname"],
		Professor:   f["professor"],
		Location:    f["location"],
		Date:        f["date"],
		Time:        f["time"],
		Type:        f["type"],
		Description: f["description"],
	}
	return s.records.Create(ctx, fields, finalized.ChannelID, finalized.UserID)
}

// ImportReport summarises a bulk import.
type ImportReport struct {
	Created int
	// Rejected maps the 0-based input index of each skipped row to the reason.
	Rejected map[int]string
}

// Import creates one schedule per row in the configured schedule channel.
// Rows failing validation or creation are reported and skipped; the rest of
// the batch continues.
func (s *ScheduleService) Import(ctx context.Context, principal Principal, rows []ScheduleFields) (ImportReport, error) {
	logger := s.loggerWith(ctx, "Import", "principal_id", principal.UserID, "rows", len(rows))
	if !principal.IsAdmin {
		logOutcome(ctx, logger, "import rejected", ErrUnauthorized)
		return ImportReport{}, ErrUnauthorized
	}
	cfg, err := s.builder.config.Get(ctx)
	if err != nil {
		return ImportReport{}, err
	}
	channelID := cfg.Channel(ChannelSchedule)
	if channelID == "" {
		err := &MissingConfigurationError{Missing: []string{string(ChannelSchedule) + " channel"}}
		logOutcome(ctx, logger, "import rejected", err)
		return ImportReport{}, err
	}

	report := ImportReport{Rejected: make(map[int]string)}
	for i, row := range rows {
		if vErr := validateImportRow(row); vErr.HasErrors() {
			report.Rejected[i] = vErr.Error()
			continue
		}
		if _, err := s.records.Create(ctx, row, channelID, principal.UserID); err != nil {
			report.Rejected[i] = err.Error()
			continue
		}
		report.Created++
	}
	logger.InfoContext(ctx, "schedules imported", "created", report.Created, "rejected", len(report.Rejected))
	return report, nil
}

func validateImportRow(row ScheduleFields) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(row.Name) == "" {
		vErr.add("name", "a value is required")
	}
	if !ValidDate(row.Date) {
		vErr.add("date", "use the YYYY-MM-DD format")
	}
	if strings.TrimSpace(row.Time) == "" {
		vErr.add("time", "a value is required")
	}
	return vErr
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (Schedule, error) {
	return s.records.Get(ctx, id)
}

// Edit changes one field. A *MirrorError return means the edit was stored but
// the announcement could not be updated.
func (s *ScheduleService) Edit(ctx context.Context, principal Principal, id, field, value string) (Schedule, error) {
	if !principal.IsAdmin {
		return Schedule{}, ErrUnauthorized
	}
	return s.records.Edit(ctx, id, field, value)
}

// Delete removes a schedule and, best effort, its announcement.
func (s *ScheduleService) Delete(ctx context.Context, principal Principal, id string) error {
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	return s.records.Delete(ctx, id)
}

// Copy duplicates a schedule with a new announcement.
func (s *ScheduleService) Copy(ctx context.Context, principal Principal, id string) (Schedule, error) {
	if !principal.IsAdmin {
		return Schedule{}, ErrUnauthorized
	}
	return s.records.Copy(ctx, id, principal.UserID)
}

// List returns every schedule in creation order.
func (s *ScheduleService) List(ctx context.Context) ([]Schedule, error) {
	return s.records.List(ctx)
}

// ListPages renders the schedule listing. No schedules yields no pages.
func (s *ScheduleService) ListPages(ctx context.Context) ([]Message, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, ScheduleLine(rec))
	}
	return ListPages("🗓️ Saved Schedules", lines), nil
}

// Refresh re-renders every schedule announcement.
func (s *ScheduleService) Refresh(ctx context.Context, principal Principal) (RefreshReport, error) {
	if !principal.IsAdmin {
		return RefreshReport{}, ErrUnauthorized
	}
	report, err := s.records.Refresh(ctx)
	if err != nil {
		logOutcome(ctx, s.loggerWith(ctx, "Refresh", "principal_id", principal.UserID), "failed to refresh schedules", err)
	}
	return report, err
}

func setScheduleField(fields *ScheduleFields, field, value string) error {
	field = strings.ToLower(strings.TrimSpace(field))
	value = strings.TrimSpace(value)
	if value == "" && field != "description" {
		return fieldError(field, "a value is required")
	}

	switch field {
	case "name":
		fields.Name = value
	case "professor":
		fields.Professor = value
	case "location":
		fields.Location = value
	case "date":
		if !ValidDate(value) {
			return fieldError(field, "use the YYYY-MM-DD format")
		}
		fields.Date = value
	case "time":
		fields.Time = value
	case "type":
		fields.Type = value
	case "description":
		fields.Description = value
	default:
		return fieldError("field", fmt.Sprintf("must be one of: %s", strings.Join(ScheduleEditableFields, ", ")))
	}
	return nil
}
