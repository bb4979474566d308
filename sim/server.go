// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/server.go
// Summary: Unix-socket server that replays the current scene to new clients
// and broadcasts scripted mutations to all of them.
// Usage: Used by wsmirror-sim to stand in for a compositor during development.

package sim

import (
	"context"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wsmirror/wsmirror/client"
	"github.com/wsmirror/wsmirror/internal/logging"
	"github.com/wsmirror/wsmirror/protocol"
)

const (
	serverName       = "wsmirror-sim"
	handshakeTimeout = 5 * time.Second
)

// ReplaySource supplies the message sequence a new client needs to catch up
// with the current scene. The callback runs with the scene locked so no
// broadcast can slip between the replay and the session's registration.
type ReplaySource interface {
	Replay(fn func([]protocol.Message) error) error
}

// Server listens on a Unix domain socket and manages sessions.
type Server struct {
	addr     string
	source   ReplaySource
	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	sessions map[[16]byte]*Session
	conns    map[net.Conn]struct{}

	observer BroadcastObserver
	log      *logrus.Entry
}

func NewServer(addr string, source ReplaySource) *Server {
	return &Server{
		addr:     addr,
		source:   source,
		quit:     make(chan struct{}),
		sessions: make(map[[16]byte]*Session),
		conns:    make(map[net.Conn]struct{}),
		log:      logging.NewLogger("sim"),
	}
}

// SetObserver wires a hook invoked after every broadcast.
func (s *Server) SetObserver(o BroadcastObserver) {
	s.observer = o
}

func (s *Server) Start() error {
	if err := os.RemoveAll(s.addr); err != nil {
		return err
	}
	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.log.WithField("socket", s.addr).Info("listening")
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.trackConn(conn)
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer s.untrackConn(c)
			defer c.Close()
			s.handleConn(c)
		}(conn)
	}
}

func (s *Server) handleConn(c net.Conn) {
	_ = c.SetReadDeadline(time.Now().Add(handshakeTimeout))
	id, hello, err := handleHandshake(c, serverName)
	if err != nil {
		s.log.WithError(err).Debug("handshake failed")
		return
	}
	_ = c.SetReadDeadline(time.Time{})

	session := newSession(id, c)
	s.log.WithFields(logrus.Fields{
		"client":  hello.ClientName,
		"session": client.FormatUUID(id),
	}).Info("client connected")

	if s.source != nil {
		err := s.source.Replay(func(msgs []protocol.Message) error {
			if err := session.Send(msgs...); err != nil {
				return err
			}
			s.register(session)
			return nil
		})
		if err != nil {
			s.log.WithError(err).Warn("scene replay failed")
			return
		}
	} else {
		s.register(session)
	}
	defer s.unregister(session)

	// Clients never speak after the handshake; the read unblocks only when
	// the client goes away or the server shuts the connection.
	_, _ = io.Copy(io.Discard, c)
	s.log.WithField("session", client.FormatUUID(id)).Info("client disconnected")
}

// Broadcast sends the messages to every registered session. Sessions whose
// connection fails are dropped on the spot.
func (s *Server) Broadcast(msgs ...protocol.Message) {
	if len(msgs) == 0 {
		return
	}
	start := time.Now()
	failures := 0

	s.mu.Lock()
	recipients := len(s.sessions)
	for id, session := range s.sessions {
		if err := session.Send(msgs...); err != nil {
			failures++
			s.log.WithError(err).WithField("session", client.FormatUUID(id)).Warn("broadcast failed, dropping session")
			delete(s.sessions, id)
			_ = session.conn.Close()
		}
	}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveBroadcast(BroadcastStats{
			Sessions: recipients,
			Messages: len(msgs),
			Failures: failures,
			Duration: time.Since(start),
		})
	}
}

// ActiveSessions reports how many clients are currently registered.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) Stop(ctx context.Context) error {
	select {
	case <-s.quit:
		// Already stopped
		return nil
	default:
		close(s.quit)
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	if ctx == nil {
		<-done
		return nil
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Server) register(session *Session) {
	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()
}

func (s *Server) unregister(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session.id)
	s.mu.Unlock()
}

func (s *Server) trackConn(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrackConn(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}
