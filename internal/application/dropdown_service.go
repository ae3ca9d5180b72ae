package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/classroom-bot/internal/persistence"
)

// maxDropdownOptions is the option ceiling of a chat select menu.
const maxDropdownOptions = 25

// DropdownService manages role self-assignment menus.
type DropdownService struct {
	records *RecordStore[DropdownFields]
	roles   RoleGateway
	locks   *keyedMutex
	logger  *slog.Logger
}

// DropdownEditableFields lists the fields accepted by Edit.
var DropdownEditableFields = []string{"category", "description"}

// ReconcileReport counts the role changes made by one menu submission.
type ReconcileReport struct {
	Removed int
	Added   int
	Failed  int
	// Granted lists the labels of the options whose role was added.
	Granted []string
}

// NewDropdownService constructs a dropdown service.
func NewDropdownService(store persistence.DocumentStore, mirror MessageMirror, roles RoleGateway, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DropdownService {
	logger = defaultLogger(logger)
	schema := RecordSchema[DropdownFields]{
		Kind:     "dropdown",
		Document: persistence.DocumentDropdowns,
		IDPrefix: "dropdown",
		Render:   RenderDropdown,
		SetField: setDropdownField,
	}
	return &DropdownService{
		records: NewRecordStore(schema, store, mirror, idGenerator, now, logger),
		roles:   roles,
		locks:   newKeyedMutex(),
		logger:  logger,
	}
}

func (s *DropdownService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DropdownService", operation, attrs...)
}

// CreateDropdownParams carries the inputs of a new role menu. Labels and
// RoleIDs pair up by position.
type CreateDropdownParams struct {
	ChannelID   string
	Category    string
	Description string
	Labels      []string
	RoleIDs     []string
}

// Create posts a role menu into the given channel and persists it.
func (s *DropdownService) Create(ctx context.Context, principal Principal, params CreateDropdownParams) (Dropdown, error) {
	if !principal.IsAdmin {
		return Dropdown{}, ErrUnauthorized
	}

	fields, vErr := buildDropdownFields(params)
	if vErr.HasErrors() {
		logOutcome(ctx, s.loggerWith(ctx, "Create"), "invalid dropdown", vErr)
		return Dropdown{}, vErr
	}
	return s.records.Create(ctx, fields, params.ChannelID, principal.UserID)
}

func buildDropdownFields(params CreateDropdownParams) (DropdownFields, *ValidationError) {
	vErr := &ValidationError{}
	category := strings.TrimSpace(params.Category)
	if category == "" {
		vErr.add("category", "a category is required")
	}
	if strings.TrimSpace(params.ChannelID) == "" {
		vErr.add("channel", "a target channel is required")
	}

	labels := trimAll(params.Labels)
	roleIDs := trimAll(params.RoleIDs)
	switch {
	case len(labels) == 0:
		vErr.add("options", "at least one option is required")
	case len(labels) != len(roleIDs):
		vErr.add("roleids", "the number of options and role ids must match")
	case len(labels) > maxDropdownOptions:
		vErr.add("options", fmt.Sprintf("at most %d options are allowed", maxDropdownOptions))
	}
	for i, label := range labels {
		if label == "" {
			vErr.add("options", "option labels must not be empty")
		}
		if i < len(roleIDs) && roleIDs[i] == "" {
			vErr.add("roleids", "role ids must not be empty")
		}
	}
	if vErr.HasErrors() {
		return DropdownFields{}, vErr
	}

	options := make([]DropdownOption, len(labels))
	for i := range labels {
		options[i] = DropdownOption{Label: labels[i], RoleID: roleIDs[i]}
	}
	return DropdownFields{
		Category:    category,
		Description: strings.TrimSpace(params.Description),
		Options:     options,
	}, nil
}

// SplitList splits a comma separated option argument.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return trimAll(strings.Split(raw, ","))
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// Get returns a role menu by id.
func (s *DropdownService) Get(ctx context.Context, id string) (Dropdown, error) {
	return s.records.Get(ctx, id)
}

// Edit changes the category or description of a menu.
func (s *DropdownService) Edit(ctx context.Context, principal Principal, id, field, value string) (Dropdown, error) {
	if !principal.IsAdmin {
		return Dropdown{}, ErrUnauthorized
	}
	return s.records.Edit(ctx, id, field, value)
}

// Delete removes a menu and, best effort, its message.
func (s *DropdownService) Delete(ctx context.Context, principal Principal, id string) error {
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	return s.records.Delete(ctx, id)
}

// Copy reposts a menu under a new id.
func (s *DropdownService) Copy(ctx context.Context, principal Principal, id string) (Dropdown, error) {
	if !principal.IsAdmin {
		return Dropdown{}, ErrUnauthorized
	}
	return s.records.Copy(ctx, id, principal.UserID)
}

// List returns every menu in creation order.
func (s *DropdownService) List(ctx context.Context) ([]Dropdown, error) {
	return s.records.List(ctx)
}

// ListPages renders the menu listing.
func (s *DropdownService) ListPages(ctx context.Context) ([]Message, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, DropdownLine(rec))
	}
	return ListPages("📋 Dropdown Menus", lines), nil
}

// Refresh re-renders every menu message.
func (s *DropdownService) Refresh(ctx context.Context, principal Principal) (RefreshReport, error) {
	if !principal.IsAdmin {
		return RefreshReport{}, ErrUnauthorized
	}
	return s.records.Refresh(ctx)
}

// Reconcile makes the member's roles from one menu equal the submitted
// selection: every role the menu offers is removed, then the roles of the
// selected option indices are added. held lists the roles the member
// currently has; menu roles outside it are not removed. A nil held means
// the member's roles are unknown and every menu role is removed. Unknown
// indices are ignored. A failed role change is logged and counted but never
// aborts the rest.
func (s *DropdownService) Reconcile(ctx context.Context, guildID, userID, dropdownID string, held, selected []string) (report ReconcileReport, err error) {
	logger := s.loggerWith(ctx, "Reconcile", "guild_id", guildID, "user_id", userID, "dropdown_id", dropdownID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "role reconciliation failed", err)
			return
		}
		logger.InfoContext(ctx, "roles reconciled", "removed", report.Removed, "added", report.Added, "failed", report.Failed)
	}()

	if s.roles == nil {
		return ReconcileReport{}, fmt.Errorf("application: role gateway not configured")
	}
	if guildID == "" || userID == "" {
		return ReconcileReport{}, fieldError("member", "role menus only work inside a server")
	}

	menu, err := s.records.Get(ctx, dropdownID)
	if err != nil {
		return ReconcileReport{}, err
	}

	unlock := s.locks.Lock(guildID + "/" + userID + "/" + dropdownID)
	defer unlock()

	for _, opt := range menu.Fields.Options {
		if held != nil && !contains(held, opt.RoleID) {
			continue
		}
		if rmErr := s.roles.RemoveRole(ctx, guildID, userID, opt.RoleID); rmErr != nil {
			report.Failed++
			logger.WarnContext(ctx, "failed to remove role", "role_id", opt.RoleID, "error", rmErr)
			continue
		}
		report.Removed++
	}

	for _, idx := range selectedIndices(selected, len(menu.Fields.Options)) {
		opt := menu.Fields.Options[idx]
		if addErr := s.roles.AddRole(ctx, guildID, userID, opt.RoleID); addErr != nil {
			report.Failed++
			logger.WarnContext(ctx, "failed to add role", "role_id", opt.RoleID, "error", addErr)
			continue
		}
		report.Added++
		report.Granted = append(report.Granted, opt.Label)
	}
	return report, nil
}

// selectedIndices parses submitted option values, dropping duplicates and
// anything outside [0, n).
func selectedIndices(values []string, n int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		idx, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || idx < 0 || idx >= n {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

func setDropdownField(fields *DropdownFields, field, value string) error {
	field = strings.ToLower(strings.TrimSpace(field))
	value = strings.TrimSpace(value)
	switch field {
	case "category":
		if value == "" {
			return fieldError(field, "a value is required")
		}
		fields.Category = value
	case "description":
		fields.Description = value
	default:
		return fieldError("field", "must be one of: "+strings.Join(DropdownEditableFields, ", "))
	}
	return nil
}
