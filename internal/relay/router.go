package relay

import (
	"sync"

	"murmur/internal/domain"
)

// forwarder is one live connection from the router's point of view. Writes
// must be safe to call from any routing goroutine.
type forwarder interface {
	forward(env domain.Envelope)
}

// Registry maps public keys to the set of live connections registered
// under them. It is an explicit dependency of every connection handler —
// there is no process-wide instance. Entirely in memory: a relay restart
// forgets everything.
type Registry struct {
	mu    sync.Mutex
	conns map[string]map[forwarder]struct{}
	keys  map[forwarder][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[forwarder]struct{}),
		keys:  make(map[forwarder][]string),
	}
}

// Register binds c to publicKey. One key may have several live
// connections, and one connection may re-register under further keys.
func (r *Registry) Register(publicKey string, c forwarder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[publicKey]
	if !ok {
		set = make(map[forwarder]struct{})
		r.conns[publicKey] = set
	}
	if _, dup := set[c]; !dup {
		set[c] = struct{}{}
		r.keys[c] = append(r.keys[c], publicKey)
	}
}

// Deregister removes c from every key's set, pruning keys whose set
// becomes empty. Called on connection close or transport error.
func (r *Registry) Deregister(c forwarder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.keys[c] {
		set := r.conns[key]
		delete(set, c)
		if len(set) == 0 {
			delete(r.conns, key)
		}
	}
	delete(r.keys, c)
}

// connsFor snapshots the connections registered under publicKey.
func (r *Registry) connsFor(publicKey string) []forwarder {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.conns[publicKey]
	out := make([]forwarder, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Registered reports whether any connection is live under publicKey.
func (r *Registry) Registered(publicKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[publicKey]) > 0
}

// Router dispatches parsed envelopes.
type Router struct {
	registry *Registry
}

// NewRouter returns a Router over the given registry.
func NewRouter(reg *Registry) *Router {
	return &Router{registry: reg}
}

// Route handles one envelope from conn. register mutates the registry;
// every other type fans out verbatim to each recipient's connections.
// Offline recipients are dropped silently — there is no queue and no error
// back to the sender.
func (rt *Router) Route(conn forwarder, env domain.Envelope) {
	switch env.Type {
	case domain.EnvRegister:
		rt.registry.Register(env.PublicKey, conn)
	case domain.EnvMessage, domain.EnvGroupEvent, domain.EnvSenderKey,
		domain.EnvSenderKeyAlt, domain.EnvGroupMessage:
		for _, to := range env.To {
			for _, c := range rt.registry.connsFor(to) {
				c.forward(env)
			}
		}
	}
}
