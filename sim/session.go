// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/session.go
// Summary: Per-client session state: identity, write serialisation, and the
// outgoing frame sequence counter.

package sim

import (
	"net"
	"sync"

	"github.com/wsmirror/wsmirror/protocol"
)

// Session is one connected client. Writes from the replay path and the
// broadcast path are serialised by writeMu so frames never interleave.
type Session struct {
	id   [16]byte
	conn net.Conn

	writeMu sync.Mutex
	seq     uint64
}

func newSession(id [16]byte, conn net.Conn) *Session {
	return &Session{id: id, conn: conn}
}

// ID returns the session identifier issued during the handshake.
func (s *Session) ID() [16]byte { return s.id }

// Send encodes and writes the messages as one uninterrupted run of frames,
// stamping each with the session id and the next sequence number.
func (s *Session) Send(msgs ...protocol.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, m := range msgs {
		payload, err := protocol.EncodeMessage(m)
		if err != nil {
			return err
		}
		s.seq++
		hdr := protocol.Header{
			Version:   protocol.Version,
			Type:      m.Type(),
			Flags:     protocol.FlagChecksum,
			SessionID: s.id,
			Sequence:  s.seq,
		}
		if err := protocol.WriteMessage(s.conn, hdr, payload); err != nil {
			return err
		}
	}
	return nil
}
