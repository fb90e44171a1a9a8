// Package app wires application dependencies for the CLI.
//
// It builds the concrete stores, relay client and high-level services from
// Config, exposing them via the Wire struct for commands to use.
package app

import (
	"context"

	"murmur/internal/domain"
	"murmur/internal/relay"
	contactsvc "murmur/internal/services/contact"
	groupsvc "murmur/internal/services/group"
	identitysvc "murmur/internal/services/identity"
	messagesvc "murmur/internal/services/message"
	"murmur/internal/store"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home      string // config directory, e.g. $HOME/.murmur
	RelayAddr string // relay TCP address, e.g. 127.0.0.1:7654; empty for offline
}

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Identity *identitysvc.Service
	Contacts *contactsvc.Service
	Groups   *groupsvc.Service
	Messages *messagesvc.Service
	Relay    domain.RelayClient

	state *store.BoltStore
}

// NewWire constructs the dependency graph from cfg. When cfg.RelayAddr is
// empty the relay client is nil and network operations report
// domain.ErrTransportUnavailable.
func NewWire(ctx context.Context, cfg Config) (*Wire, error) {
	idStore := store.NewIdentityFileStore(cfg.Home)
	state, err := store.OpenBolt(cfg.Home)
	if err != nil {
		return nil, err
	}

	var rc domain.RelayClient
	if cfg.RelayAddr != "" {
		rc, err = relay.Dial(ctx, cfg.RelayAddr)
		if err != nil {
			state.Close()
			return nil, err
		}
	}

	return &Wire{
		Identity: identitysvc.New(idStore),
		Contacts: contactsvc.New(state),
		Groups:   groupsvc.New(idStore, state, state, rc),
		Messages: messagesvc.New(idStore, rc),
		Relay:    rc,
		state:    state,
	}, nil
}

// Close releases the state database and the relay connection.
func (w *Wire) Close() error {
	if w.Relay != nil {
		w.Relay.Close()
	}
	return w.state.Close()
}
