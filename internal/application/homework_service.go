package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/classroom-bot/internal/persistence"
)

// HomeworkService manages homework assignments and per-user completion flags.
type HomeworkService struct {
	records *RecordStore[HomeworkFields]
	builder builder
	logger  *slog.Logger
}

// HomeworkEditableFields lists the fields accepted by Edit.
var HomeworkEditableFields = []string{"classname", "professor", "type", "turninmethod", "due", "description"}

// NewHomeworkService constructs a homework service.
func NewHomeworkService(store persistence.DocumentStore, mirror MessageMirror, wizards *WizardManager, config *ConfigService, idGenerator func() string, now func() time.Time, logger *slog.Logger) *HomeworkService {
	logger = defaultLogger(logger)
	schema := RecordSchema[HomeworkFields]{
		Kind:     "homework",
		Document: persistence.DocumentHomeworks,
		IDPrefix: "homework",
		Render:   RenderHomework,
		SetField: setHomeworkField,
		Reset: func(fields *HomeworkFields) {
			fields.Completion = nil
		},
	}
	return &HomeworkService{
		records: NewRecordStore(schema, store, mirror, idGenerator, now, logger),
		builder: builder{kind: WizardHomework, wizards: wizards, config: config},
		logger:  logger,
	}
}

func (s *HomeworkService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "HomeworkService", operation, attrs...)
}

// OpenBuilder starts the homework builder for an administrator.
func (s *HomeworkService) OpenBuilder(ctx context.Context, principal Principal) (StepView, error) {
	return s.builder.open(ctx, principal)
}

// Choose records a builder selection.
func (s *HomeworkService) Choose(ctx context.Context, principal Principal, field, value string) error {
	return s.builder.choose(ctx, principal, field, value)
}

// Next advances the builder.
func (s *HomeworkService) Next(ctx context.Context, principal Principal) (StepView, error) {
	return s.builder.next(ctx, principal)
}

// BuilderView returns the current step of the principal's builder.
func (s *HomeworkService) BuilderView(ctx context.Context, principal Principal) (StepView, error) {
	return s.builder.current(ctx, principal)
}

// CancelBuilder abandons the principal's builder session.
func (s *HomeworkService) CancelBuilder(ctx context.Context, principal Principal) {
	s.builder.cancel(ctx, principal)
}

// CompleteBuilder records the details step and creates the homework.
func (s *HomeworkService) CompleteBuilder(ctx context.Context, principal Principal, values map[string]string) (Homework, error) {
	finalized, err := s.builder.complete(ctx, principal, values)
	if err != nil {
		return Homework{}, err
	}
	return s.CreateFromWizard(ctx, finalized)
}

// CreateFromWizard posts and persists the homework described by a finished builder.
func (s *HomeworkService) CreateFromWizard(ctx context.Context, finalized FinalizedWizard) (Homework, error) {
	if finalized.Kind != WizardHomework {
		return Homework{}, fieldError("kind", "not a homework builder")
	}
	f := finalized.Fields
	fields := HomeworkFields{
		Classname:    f["classname"],
		Professor:    f["professor"],
		Type:         f["type"],
		TurnInMethod: f["turnin"],
		Due:          f["due"],
		Description:  f["description"],
	}
	return s.records.Create(ctx, fields, finalized.ChannelID, finalized.UserID)
}

// Get returns a homework assignment by id.
func (s *HomeworkService) Get(ctx context.Context, id string) (Homework, error) {
	return s.records.Get(ctx, id)
}

// Edit changes one field. A *MirrorError return means the edit was stored but
// the message could not be updated.
func (s *HomeworkService) Edit(ctx context.Context, principal Principal, id, field, value string) (Homework, error) {
	if !principal.IsAdmin {
		return Homework{}, ErrUnauthorized
	}
	return s.records.Edit(ctx, id, field, value)
}

// Delete removes an assignment and, best effort, its message.
func (s *HomeworkService) Delete(ctx context.Context, principal Principal, id string) error {
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	return s.records.Delete(ctx, id)
}

// Copy duplicates an assignment with a new message and no completions.
func (s *HomeworkService) Copy(ctx context.Context, principal Principal, id string) (Homework, error) {
	if !principal.IsAdmin {
		return Homework{}, ErrUnauthorized
	}
	return s.records.Copy(ctx, id, principal.UserID)
}

// List returns every assignment in creation order.
func (s *HomeworkService) List(ctx context.Context) ([]Homework, error) {
	return s.records.List(ctx)
}

// ListPages renders the homework listing. No assignments yields no pages.
func (s *HomeworkService) ListPages(ctx context.Context) ([]Message, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, HomeworkLine(rec))
	}
	return ListPages("📝 Saved Homework Assignments", lines), nil
}

// Refresh re-renders every homework message.
func (s *HomeworkService) Refresh(ctx context.Context, principal Principal) (RefreshReport, error) {
	if !principal.IsAdmin {
		return RefreshReport{}, ErrUnauthorized
	}
	return s.records.Refresh(ctx)
}

// ToggleCompletion flips the caller's done flag on an assignment and returns
// the new value. Anyone may toggle their own flag.
func (s *HomeworkService) ToggleCompletion(ctx context.Context, principal Principal, id string) (bool, error) {
	if strings.TrimSpace(principal.UserID) == "" {
		return false, fieldError("user", "a user is required")
	}

	var done bool
	_, err := s.records.Mutate(ctx, id, func(rec *Homework) error {
		if rec.Fields.Completion == nil {
			rec.Fields.Completion = make(map[string]bool)
		}
		done = !rec.Fields.Completion[principal.UserID]
		if done {
			rec.Fields.Completion[principal.UserID] = true
		} else {
			delete(rec.Fields.Completion, principal.UserID)
		}
		return nil
	})
	if err != nil && !IsMirrorWarning(err) {
		return false, err
	}

	s.loggerWith(ctx, "ToggleCompletion", "homework_id", id, "user_id", principal.UserID).
		DebugContext(ctx, "completion toggled", "done", done)
	return done, err
}

// CompletionFor reports whether userID marked the assignment done.
func (s *HomeworkService) CompletionFor(ctx context.Context, id, userID string) (bool, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return rec.Fields.Completion[userID], nil
}

func setHomeworkField(fields *HomeworkFields, field, value string) error {
	field = strings.ToLower(strings.TrimSpace(field))
	value = strings.TrimSpace(value)
	if value == "" {
		return fieldError(field, "a value is required")
	}

	switch field {
	case "classname":
		fields.Classname = value
	case "professor":
		fields.Professor = value
	case "type":
		fields.Type = value
	case "turninmethod", "turnin":
		fields.TurnInMethod = value
	case "due":
		if !ValidDate(value) {
			return fieldError(field, "use the YYYY-MM-DD format")
		}
		fields.Due = value
	case "description":
		fields.Description = value
	default:
		return fieldError("field", fmt.Sprintf("must be one of: %s", strings.Join(HomeworkEditableFields, ", ")))
	}
	return nil
}
