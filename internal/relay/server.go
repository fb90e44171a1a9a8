package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"sync"

	"murmur/internal/domain"
)

// maxFrame bounds one JSON frame. Large enough for any envelope the
// clients produce, small enough to keep a hostile connection cheap.
const maxFrame = 1 << 20

// Server accepts relay connections and routes their frames.
type Server struct {
	registry *Registry
	router   *Router
	listener net.Listener
	logger   *log.Logger

	mu    sync.Mutex
	conns map[*serverConn]struct{}
}

// NewServer returns a Server routing through its own fresh registry.
// A nil logger falls back to the stdlib default.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	reg := NewRegistry()
	return &Server{
		registry: reg,
		router:   NewRouter(reg),
		logger:   logger,
		conns:    make(map[*serverConn]struct{}),
	}
}

// Registry exposes the server's registry, mainly for tests.
func (s *Server) Registry() *Registry { return s.registry }

// Listen binds addr and returns the bound address (useful with ":0").
func (s *Server) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	return ln.Addr(), nil
}

// ErrNotListening is returned by Serve when Listen has not been called.
var ErrNotListening = errors.New("relay: serve before listen")

// Serve accepts connections until ctx is cancelled or the listener closes.
// Listen must have succeeded first.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return ErrNotListening
	}
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		sc := &serverConn{conn: conn, server: s}
		s.mu.Lock()
		s.conns[sc] = struct{}{}
		s.mu.Unlock()
		go sc.readLoop()
	}
}

// Close tears down the listener and every live connection.
func (s *Server) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Lock()
	for sc := range s.conns {
		sc.conn.Close()
	}
	s.mu.Unlock()
	return err
}

func (s *Server) dropConn(sc *serverConn) {
	s.registry.Deregister(sc)
	s.mu.Lock()
	delete(s.conns, sc)
	s.mu.Unlock()
	sc.conn.Close()
}

// serverConn is one client connection. forward may be called from other
// connections' read loops, so writes are serialised with a mutex.
type serverConn struct {
	conn    net.Conn
	server  *Server
	writeMu sync.Mutex
}

func (sc *serverConn) readLoop() {
	defer sc.server.dropConn(sc)

	scanner := bufio.NewScanner(sc.conn)
	scanner.Buffer(make([]byte, 64*1024), maxFrame)
	for scanner.Scan() {
		env, err := domain.ParseEnvelope(scanner.Bytes())
		if err != nil {
			// Malformed frames are dropped; the connection stays up.
			sc.server.logger.Printf("relay: dropping frame from %s: %v", sc.conn.RemoteAddr(), err)
			continue
		}
		sc.server.router.Route(sc, env)
	}
}

func (sc *serverConn) forward(env domain.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if _, err := sc.conn.Write(append(data, '\n')); err != nil {
		// The read loop notices the broken connection and deregisters it.
		sc.server.logger.Printf("relay: write to %s failed: %v", sc.conn.RemoteAddr(), err)
	}
}
