package store

import (
	"sync"

	"murmur/internal/domain"
)

// Memory is an in-memory stand-in for BoltStore, used by service tests.
type Memory struct {
	mu         sync.Mutex
	senderKeys map[string]domain.SenderKeyState
	groups     map[string]domain.Group
	contacts   map[string]domain.Contact
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		senderKeys: make(map[string]domain.SenderKeyState),
		groups:     make(map[string]domain.Group),
		contacts:   make(map[string]domain.Contact),
	}
}

func (m *Memory) SaveSenderKey(state domain.SenderKeyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senderKeys[string(senderKeyID(state.GroupID, state.SenderKey))] = state
	return nil
}

func (m *Memory) LoadSenderKey(groupID string, sender domain.X25519Public) (domain.SenderKeyState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.senderKeys[string(senderKeyID(groupID, sender))]
	return st, ok, nil
}

func (m *Memory) DeleteSenderKey(groupID string, sender domain.X25519Public) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.senderKeys, string(senderKeyID(groupID, sender)))
	return nil
}

func (m *Memory) SaveGroup(g domain.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = g
	return nil
}

func (m *Memory) LoadGroup(id string) (domain.Group, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	return g, ok, nil
}

func (m *Memory) ListGroups() ([]domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out, nil
}

func (m *Memory) SaveContact(c domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[c.Name] = c
	return nil
}

func (m *Memory) LoadContact(name string) (domain.Contact, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[name]
	return c, ok, nil
}

func (m *Memory) ListContacts() ([]domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, c)
	}
	return out, nil
}

var (
	_ domain.SenderKeyStore = (*Memory)(nil)
	_ domain.GroupStore     = (*Memory)(nil)
	_ domain.ContactStore   = (*Memory)(nil)
)
