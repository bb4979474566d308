// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: mirror/subscribe.go
// Summary: Connects to a compositor session and streams mirrored change events.
// Usage: Consumers range over Events(); a closed channel means no more events
// will ever arrive, with Err() distinguishing failure from a clean end.

package mirror

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wsmirror/wsmirror/client"
	"github.com/wsmirror/wsmirror/internal/logging"
	"github.com/wsmirror/wsmirror/protocol"
)

// Options configures a subscription.
type Options struct {
	// Socket is the path of the compositor's unix socket.
	Socket string
	// Output selects the display to mirror by name. Empty binds to the first
	// output advertised.
	Output string
	// Client is the name announced during the handshake.
	Client string
}

// Subscription is a live mirror of one compositor session. All state lives in
// the dispatch goroutine; consumers interact only through the event channel.
type Subscription struct {
	bridge *Bridge
	conn   *client.Conn

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	log       *logrus.Entry
}

// Subscribe dials the compositor and starts the dispatch goroutine. A failed
// connection is not an error: the subscription degrades to an already-closed
// channel and the caller observes zero events.
func Subscribe(opts Options) *Subscription {
	name := opts.Client
	if name == "" {
		name = "wsmirror"
	}

	sub := &Subscription{
		bridge: NewBridge(),
		log:    logging.NewLogger("mirror"),
	}

	conn, err := client.Dial(opts.Socket, name)
	if err != nil {
		sub.log.WithError(err).Warn("compositor unreachable, mirroring disabled")
		sub.bridge.Close()
		return sub
	}
	sub.conn = conn
	sub.log.WithField("session", client.FormatUUID(conn.SessionID())).Info("session established")

	go sub.dispatch(NewState(opts.Output))
	return sub
}

// dispatch is the loop that owns the connection and the mirror state. It is
// the only writer; no locking guards State.
func (s *Subscription) dispatch(state *State) {
	defer s.bridge.Close()
	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				s.log.Info("session ended")
			case errors.Is(err, protocol.ErrUnknownMessage):
				// Cleanly framed but unknown; the stream is still aligned.
				s.log.WithError(err).Debug("skipping unknown message")
				continue
			default:
				s.log.WithError(err).Error("dispatch failed")
				s.setErr(err)
			}
			return
		}
		for _, ev := range state.Apply(msg) {
			s.bridge.TrySend(ev)
		}
	}
}

// Events returns the change stream. Values are detached copies and may be
// retained by the consumer.
func (s *Subscription) Events() <-chan Event { return s.bridge.Events() }

// Err reports why the stream ended. It is nil for a clean end, for a
// consumer-initiated Close, and for the degraded never-connected mode.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Dropped reports how many events were lost to backpressure.
func (s *Subscription) Dropped() uint64 { return s.bridge.Dropped() }

// Close tears down the connection. The dispatch goroutine notices the closed
// socket and ends the event stream.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
