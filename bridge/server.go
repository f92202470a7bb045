// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/z5labs/bundlebridge/pkg/noop"
	"github.com/z5labs/bundlebridge/pkg/slogfield"

	"github.com/google/uuid"
)

type options struct {
	logHandler slog.Handler
	hostname   string
}

// Option configures a Server.
type Option func(*options)

// LogHandler configures the slog.Handler used by the Server.
//
// Default is a handler which discards every record.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// Hostname overrides the host advertised in URLs returned by [Server.Register].
// By default the canonical host name of the bind address is used.
func Hostname(host string) Option {
	return func(o *options) {
		o.hostname = host
	}
}

// Server is an ephemeral HTTP/1.0 server which serves registered Sources
// to whoever requests their token. It is meant to live for as long as a
// single remote peer needs to fetch a local artifact.
type Server struct {
	log  *slog.Logger
	ls   net.Listener
	host string
	port int

	mu      sync.Mutex
	running bool
	conns   map[*conn]struct{}
	streams map[string]Source
}

// New binds a Server to the given address and port. A nil addr binds the
// wildcard address and advertises the local host name. A port of 0 selects
// an ephemeral port.
//
// The returned error is a *BindError if the listening socket could not be
// acquired.
func New(addr net.IP, port int, opts ...Option) (*Server, error) {
	o := &options{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	bindAddr := net.JoinHostPort(ipString(addr), strconv.Itoa(port))
	ls, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, &BindError{Addr: bindAddr, Cause: err}
	}

	host := o.hostname
	if host == "" {
		host = canonicalHostname(addr)
	}

	s := &Server{
		log:     slog.New(o.logHandler),
		ls:      ls,
		host:    host,
		port:    ls.Addr().(*net.TCPAddr).Port,
		running: true,
		conns:   make(map[*conn]struct{}),
		streams: make(map[string]Source),
	}
	return s, nil
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

func canonicalHostname(ip net.IP) string {
	if ip != nil {
		names, err := net.LookupAddr(ip.String())
		if err != nil || len(names) == 0 {
			return ip.String()
		}
		return strings.TrimSuffix(names[0], ".")
	}

	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	cname, err := net.LookupCNAME(host)
	if err != nil || cname == "" {
		return host
	}
	return strings.TrimSuffix(cname, ".")
}

// Addr returns the address the Server is listening on.
func (s *Server) Addr() net.Addr {
	return s.ls.Addr()
}

// Running reports whether the Server has not yet been shut down.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Register stores src under a freshly generated token and returns the URL
// a peer must GET to receive its bytes. The registration is visible to
// every connection accepted after Register returns.
//
// Register panics with a URLConstructionError if the advertised host is
// not valid in a URL.
func (s *Server) Register(src Source) *url.URL {
	token := uuid.NewString()

	s.mu.Lock()
	s.streams[token] = src
	s.mu.Unlock()

	raw := fmt.Sprintf("http://%s/%s", net.JoinHostPort(s.host, strconv.Itoa(s.port)), token)
	u, err := url.Parse(raw)
	if err != nil {
		panic(URLConstructionError{Host: s.host, Cause: err})
	}
	return u
}

func (s *Server) lookup(token string) Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[token]
}

// Start begins accepting connections on a background goroutine and
// returns immediately. Each accepted connection is served on its own
// goroutine.
func (s *Server) Start() {
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	s.log.Info("bridge started", slogfield.String("addr", s.ls.Addr().String()))
	for {
		nc, err := s.ls.Accept()
		if err != nil {
			// Closing the listener is how Shutdown stops this loop.
			if s.Running() {
				s.log.Error("error accepting connection", slogfield.Error(err))
			}
			return
		}

		c := &conn{
			srv: s,
			nc:  nc,
		}
		if !s.track(c) {
			c.close()
			continue
		}
		go c.serve()
	}
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// Shutdown stops the Server. It closes the listening socket, which ends
// the accept loop, and then force closes every connection still being
// served. Shutdown does not wait for the accept loop goroutine to exit
// and is safe to call more than once.
func (s *Server) Shutdown() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	s.ls.Close()

	s.mu.Lock()
	conns := s.conns
	s.conns = make(map[*conn]struct{})
	clear(s.streams)
	s.mu.Unlock()

	for c := range conns {
		c.close()
	}

	if wasRunning {
		s.log.Info(
			"bridge stopped",
			slogfield.String("addr", s.ls.Addr().String()),
			slogfield.Int("closed_connections", len(conns)),
		)
	}
}
