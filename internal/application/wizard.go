package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
)

const (
	eventAdvance  = "advance"
	eventFinalize = "finalize"
	eventAbandon  = "abandon"

	stateFinalized = "finalized"
	stateAbandoned = "abandoned"
)

func stepState(index int) string {
	return "step" + strconv.Itoa(index+1)
}

// newStepMachine builds the linear step machine of a session:
// step1 -> step2 -> ... -> finalized, with abandon reachable from every step.
// The before callbacks refuse to leave a step whose required fields are
// missing, so the machine never moves past an incomplete step.
func newStepMachine(s *wizardSession) *fsm.FSM {
	steps := make([]string, len(s.schema.Steps))
	for i := range s.schema.Steps {
		steps[i] = stepState(i)
	}

	events := fsm.Events{
		{Name: eventFinalize, Src: steps, Dst: stateFinalized},
		{Name: eventAbandon, Src: steps, Dst: stateAbandoned},
	}
	for i := 0; i+1 < len(steps); i++ {
		events = append(events, fsm.EventDesc{Name: eventAdvance, Src: []string{steps[i]}, Dst: steps[i+1]})
	}
	return fsm.NewFSM(steps[0], events, fsm.Callbacks{
		"before_" + eventAdvance: func(_ context.Context, e *fsm.Event) {
			if err := s.firstMissing(s.stepOf(e.Src)); err != nil {
				e.Cancel(err)
			}
		},
		"before_" + eventFinalize: func(_ context.Context, e *fsm.Event) {
			for i := range s.schema.Steps {
				if err := s.firstMissing(i); err != nil {
					e.Cancel(err)
					return
				}
			}
		},
	})
}

// transitionError maps a refused transition onto the application errors.
func transitionError(err error) error {
	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return canceled.Err
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		if invalid.State == stateFinalized || invalid.State == stateAbandoned {
			return ErrSessionNotFound
		}
		if invalid.Event == eventAdvance {
			return fieldError("step", "this is the final step")
		}
	}
	var unknown fsm.UnknownEventError
	if errors.As(err, &unknown) && unknown.Event == eventAdvance {
		// single-step schemas have no advance transition at all
		return fieldError("step", "this is the final step")
	}
	return fmt.Errorf("application: builder transition: %w", err)
}

// wizardSession is one user's in-progress builder. mu serialises every
// operation on the session; the machine's current state is the step.
type wizardSession struct {
	mu          sync.Mutex
	schema      WizardSchema
	userID      string
	channelID   string
	createdAt   time.Time
	lastTouched atomic.Int64
	fields      map[string]string
	options     map[string][]string
	machine     *fsm.FSM
}

func (s *wizardSession) touch(now time.Time) {
	s.lastTouched.Store(now.UnixNano())
}

func (s *wizardSession) touched() time.Time {
	return time.Unix(0, s.lastTouched.Load())
}

// stepOf returns the schema index of a step state, or -1 for the terminal states.
func (s *wizardSession) stepOf(state string) int {
	for i := range s.schema.Steps {
		if stepState(i) == state {
			return i
		}
	}
	return -1
}

func (s *wizardSession) step() int {
	return s.stepOf(s.machine.Current())
}

// StepView carries what a transport needs to render the current step.
type StepView struct {
	Kind      WizardKind
	Title     string
	Index     int
	StepCount int
	Step      WizardStep
	// Options maps select field names to their allowed values.
	Options map[string][]string
	// Values holds everything collected so far.
	Values map[string]string
}

// FinalizedWizard is the output of a completed builder.
type FinalizedWizard struct {
	Kind      WizardKind
	UserID    string
	ChannelID string
	Fields    map[string]string
}

// WizardManager drives builder sessions, one per user and kind. Opening a
// builder again replaces the user's previous session of that kind.
type WizardManager struct {
	schemas  map[WizardKind]WizardSchema
	sessions *sessionStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewWizardManager constructs a manager whose sessions expire after ttl of inactivity.
func NewWizardManager(schemas map[WizardKind]WizardSchema, ttl time.Duration, now func() time.Time, logger *slog.Logger) *WizardManager {
	if schemas == nil {
		schemas = WizardSchemas
	}
	if now == nil {
		now = time.Now
	}
	return &WizardManager{
		schemas:  schemas,
		sessions: newSessionStore(ttl, now),
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (m *WizardManager) loggerWith(ctx context.Context, operation string, kind WizardKind, userID string) *slog.Logger {
	return serviceLogger(ctx, m.logger, "WizardManager", operation, "wizard_kind", kind, "user_id", userID)
}

// Open starts a session. It fails with a *MissingConfigurationError when the
// target channel or any prerequisite list is empty. Select options are
// captured from lists at this point.
func (m *WizardManager) Open(ctx context.Context, userID string, kind WizardKind, channelID string, lists map[ConfigList][]string) (StepView, error) {
	schema, ok := m.schemas[kind]
	if !ok {
		return StepView{}, fieldError("kind", fmt.Sprintf("unknown builder %q", kind))
	}
	logger := m.loggerWith(ctx, "Open", kind, userID)

	var missing []string
	if strings.TrimSpace(channelID) == "" {
		missing = append(missing, string(schema.ChannelTarget)+" channel")
	}
	for _, list := range schema.Prerequisites {
		if len(lists[list]) == 0 {
			missing = append(missing, string(list))
		}
	}
	if len(missing) > 0 {
		err := &MissingConfigurationError{Missing: missing}
		logOutcome(ctx, logger, "builder prerequisites missing", err)
		return StepView{}, err
	}

	now := m.now()
	session := &wizardSession{
		schema:    schema,
		userID:    userID,
		channelID: channelID,
		createdAt: now,
		fields:    make(map[string]string),
		options:   make(map[string][]string),
	}
	session.machine = newStepMachine(session)
	session.touch(now)
	for _, step := range schema.Steps {
		for _, f := range step.Fields {
			if f.Input == InputSelect {
				session.options[f.Name] = optionsFor(f, lists)
			} else if f.Source != "" {
				session.options[f.Name] = append([]string(nil), lists[f.Source]...)
			}
		}
	}

	if previous := m.sessions.Store(sessionKey(kind, userID), session); previous != nil {
		logger.InfoContext(ctx, "replaced unfinished builder session", "previous_step", previous.machine.Current())
	} else {
		logger.InfoContext(ctx, "builder session opened")
	}
	return session.view(), nil
}

// acquire returns the live, locked session for kind and user. The caller
// must unlock it.
func (m *WizardManager) acquire(kind WizardKind, userID string) (*wizardSession, error) {
	key := sessionKey(kind, userID)
	session, ok := m.sessions.Get(key)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.mu.Lock()
	// replaced, finalized or expired while we waited
	if current, ok := m.sessions.Get(key); !ok || current != session {
		session.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	session.touch(m.now())
	return session, nil
}

// RecordSelection stores value under field. The field must belong to the
// current step or an earlier one; re-selecting overwrites the previous value.
// Select values must be one of the options captured at Open and date fields
// must be YYYY-MM-DD.
func (m *WizardManager) RecordSelection(ctx context.Context, userID string, kind WizardKind, field, value string) error {
	session, err := m.acquire(kind, userID)
	if err != nil {
		logOutcome(ctx, m.loggerWith(ctx, "RecordSelection", kind, userID), "selection rejected", err)
		return err
	}
	defer session.mu.Unlock()

	def, stepIndex, ok := session.schema.field(field)
	if !ok {
		return fieldError(field, "unknown field")
	}
	if stepIndex > session.step() {
		return fieldError(field, "this field belongs to a later step")
	}

	value = strings.TrimSpace(value)
	if err := validateWizardValue(def, value, session.options[field]); err != nil {
		return err
	}

	if value == "" {
		delete(session.fields, field)
	} else {
		session.fields[field] = value
	}
	m.loggerWith(ctx, "RecordSelection", kind, userID).DebugContext(ctx, "selection recorded", "field", field)
	return nil
}

func validateWizardValue(def WizardField, value string, options []string) error {
	if value == "" {
		if def.Required {
			return fieldError(def.Name, "a value is required")
		}
		return nil
	}
	switch {
	case def.Input == InputSelect && !contains(options, value):
		return fieldError(def.Name, fmt.Sprintf("%q is not one of the configured options", value))
	case def.Format == FormatDate && !ValidDate(value):
		return fieldError(def.Name, "use the YYYY-MM-DD format")
	}
	return nil
}

// Advance moves to the next step once every required field of the current
// step is set. The first missing field in declared order is reported and the
// step is left unchanged.
func (m *WizardManager) Advance(ctx context.Context, userID string, kind WizardKind) (StepView, error) {
	logger := m.loggerWith(ctx, "Advance", kind, userID)

	session, err := m.acquire(kind, userID)
	if err != nil {
		logOutcome(ctx, logger, "advance rejected", err)
		return StepView{}, err
	}
	defer session.mu.Unlock()

	if err := session.machine.Event(ctx, eventAdvance); err != nil {
		err = transitionError(err)
		logOutcome(ctx, logger, "advance rejected", err)
		return StepView{}, err
	}
	logger.DebugContext(ctx, "builder advanced", "step", session.machine.Current())
	return session.view(), nil
}

// Finalize checks every required field in declared order, removes the
// session and returns the collected values. The session is gone even if the
// caller fails to persist the result.
func (m *WizardManager) Finalize(ctx context.Context, userID string, kind WizardKind) (FinalizedWizard, error) {
	logger := m.loggerWith(ctx, "Finalize", kind, userID)

	session, err := m.acquire(kind, userID)
	if err != nil {
		logOutcome(ctx, logger, "finalize rejected", err)
		return FinalizedWizard{}, err
	}
	defer session.mu.Unlock()

	if err := session.machine.Event(ctx, eventFinalize); err != nil {
		err = transitionError(err)
		logOutcome(ctx, logger, "finalize rejected", err)
		return FinalizedWizard{}, err
	}

	m.sessions.Remove(sessionKey(kind, userID), session)
	logger.InfoContext(ctx, "builder finalized")
	return FinalizedWizard{
		Kind:      kind,
		UserID:    userID,
		ChannelID: session.channelID,
		Fields:    copyFields(session.fields),
	}, nil
}

// Abandon drops the user's session of kind. It is a no-op when none exists.
func (m *WizardManager) Abandon(ctx context.Context, userID string, kind WizardKind) {
	session, err := m.acquire(kind, userID)
	if err != nil {
		return
	}
	defer session.mu.Unlock()

	if err := session.machine.Event(ctx, eventAbandon); err != nil {
		return
	}
	m.sessions.Remove(sessionKey(kind, userID), session)
	m.loggerWith(ctx, "Abandon", kind, userID).InfoContext(ctx, "builder abandoned")
}

// Current returns the view of the user's live session.
func (m *WizardManager) Current(ctx context.Context, userID string, kind WizardKind) (StepView, error) {
	session, err := m.acquire(kind, userID)
	if err != nil {
		return StepView{}, err
	}
	defer session.mu.Unlock()
	return session.view(), nil
}

// Sweep drops expired sessions.
func (m *WizardManager) Sweep(ctx context.Context) int {
	removed := m.sessions.Sweep()
	if removed > 0 {
		serviceLogger(ctx, m.logger, "WizardManager", "Sweep").InfoContext(ctx, "expired builder sessions removed", "count", removed)
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *WizardManager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func (s *wizardSession) firstMissing(stepIndex int) error {
	for _, f := range s.schema.Steps[stepIndex].Fields {
		if f.Required && s.fields[f.Name] == "" {
			return &MissingFieldError{Field: f.Name}
		}
	}
	return nil
}

func (s *wizardSession) view() StepView {
	index := s.step()
	step := s.schema.Steps[index]
	options := make(map[string][]string, len(step.Fields))
	for _, f := range step.Fields {
		if opts, ok := s.options[f.Name]; ok {
			options[f.Name] = append([]string(nil), opts...)
		}
	}
	return StepView{
		Kind:      s.schema.Kind,
		Title:     s.schema.Title,
		Index:     index,
		StepCount: len(s.schema.Steps),
		Step:      step,
		Options:   options,
		Values:    copyFields(s.fields),
	}
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
