package testfixtures

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/classroom-bot/internal/application"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("testfixtures: injected failure")

// SentMessage records one message held by the Mirror.
type SentMessage struct {
	ChannelID string
	MessageID string
	Message   application.Message
}

// Mirror is a fake application.MessageMirror keeping messages in memory.
type Mirror struct {
	mu       sync.Mutex
	next     int
	messages map[string]SentMessage
	sends    int
	edits    int
	deletes  int

	FailSend   bool
	FailEdit   bool
	FailDelete bool
}

// NewMirror returns an empty fake mirror.
func NewMirror() *Mirror {
	return &Mirror{messages: make(map[string]SentMessage)}
}

// Send implements application.MessageMirror.
func (m *Mirror) Send(ctx context.Context, channelID string, msg application.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSend {
		return "", ErrInjected
	}
	m.next++
	id := fmt.Sprintf("msg-%d", m.next)
	m.messages[id] = SentMessage{ChannelID: channelID, MessageID: id, Message: msg}
	m.sends++
	return id, nil
}

// Edit implements application.MessageMirror.
func (m *Mirror) Edit(ctx context.Context, channelID, messageID string, msg application.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailEdit {
		return ErrInjected
	}
	if _, ok := m.messages[messageID]; !ok {
		return fmt.Errorf("testfixtures: unknown message %s", messageID)
	}
	m.messages[messageID] = SentMessage{ChannelID: channelID, MessageID: messageID, Message: msg}
	m.edits++
	return nil
}

// Delete implements application.MessageMirror.
func (m *Mirror) Delete(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete {
		return ErrInjected
	}
	delete(m.messages, messageID)
	m.deletes++
	return nil
}

// Message returns the current content of messageID.
func (m *Mirror) Message(messageID string) (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	return msg, ok
}

// Len reports how many messages are live.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Counts returns the number of successful sends, edits and deletes.
func (m *Mirror) Counts() (sends, edits, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends, m.edits, m.deletes
}

// Roles is a fake application.RoleGateway tracking member roles per guild.
type Roles struct {
	mu      sync.Mutex
	members map[string]map[string]bool
	calls   []string

	// Fail lists role ids whose add and remove calls fail.
	Fail map[string]bool
}

// NewRoles returns a fake with no roles assigned.
func NewRoles() *Roles {
	return &Roles{members: make(map[string]map[string]bool)}
}

func memberKey(guildID, userID string) string {
	return guildID + "/" + userID
}

// Grant assigns roleID to the member directly.
func (r *Roles) Grant(guildID, userID string, roleIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey(guildID, userID)
	if r.members[key] == nil {
		r.members[key] = make(map[string]bool)
	}
	for _, id := range roleIDs {
		r.members[key][id] = true
	}
}

// AddRole implements application.RoleGateway.
func (r *Roles) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "add:"+roleID)
	if r.Fail[roleID] {
		return ErrInjected
	}
	key := memberKey(guildID, userID)
	if r.members[key] == nil {
		r.members[key] = make(map[string]bool)
	}
	r.members[key][roleID] = true
	return nil
}

// RemoveRole implements application.RoleGateway.
func (r *Roles) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "remove:"+roleID)
	if r.Fail[roleID] {
		return ErrInjected
	}
	delete(r.members[memberKey(guildID, userID)], roleID)
	return nil
}

// Has reports whether the member holds roleID.
func (r *Roles) Has(guildID, userID, roleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[memberKey(guildID, userID)][roleID]
}

// Reset forgets the recorded calls but keeps the assigned roles.
func (r *Roles) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Calls returns the gateway calls in order as "add:<role>" or "remove:<role>".
func (r *Roles) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Activity is a fake application.ActivitySetter.
type Activity struct {
	mu      sync.Mutex
	current string
	Err     error
}

// SetActivity implements application.ActivitySetter.
func (a *Activity) SetActivity(ctx context.Context, activity string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.current = activity
	return nil
}

// Current returns the last applied activity.
func (a *Activity) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

var (
	_ application.MessageMirror  = (*Mirror)(nil)
	_ application.RoleGateway    = (*Roles)(nil)
	_ application.ActivitySetter = (*Activity)(nil)
)
