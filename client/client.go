// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: client/client.go
// Summary: Dials a compositor session socket and performs the handshake.

package client

import (
	"fmt"
	"net"
	"time"

	"github.com/wsmirror/wsmirror/protocol"
)

const dialTimeout = 5 * time.Second

// Conn is an established session with a compositor-side server. It is a thin
// reader; all interpretation of the stream happens in the mirror package.
type Conn struct {
	conn      net.Conn
	sessionID [16]byte
	server    string
}

// Dial connects to the unix socket at path and performs the Hello/Welcome
// handshake, announcing clientName to the server.
func Dial(path, clientName string) (*Conn, error) {
	nc, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	payload, err := protocol.EncodeHello(protocol.Hello{ClientName: clientName})
	if err != nil {
		nc.Close()
		return nil, err
	}
	hdr := protocol.Header{Version: protocol.Version, Type: protocol.MsgHello, Flags: protocol.FlagChecksum}
	if err := protocol.WriteMessage(nc, hdr, payload); err != nil {
		nc.Close()
		return nil, err
	}

	reply, body, err := protocol.ReadMessage(nc)
	if err != nil {
		nc.Close()
		return nil, err
	}
	if reply.Type != protocol.MsgWelcome {
		nc.Close()
		return nil, fmt.Errorf("unexpected message %v during handshake", reply.Type)
	}
	welcome, err := protocol.DecodeWelcome(body)
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Conn{conn: nc, sessionID: welcome.SessionID, server: welcome.ServerName}, nil
}

// ReadMessage blocks until the next server message arrives and decodes it.
func (c *Conn) ReadMessage() (protocol.Message, error) {
	hdr, payload, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeMessage(hdr, payload)
}

// SessionID returns the server-issued session identifier.
func (c *Conn) SessionID() [16]byte { return c.sessionID }

// ServerName returns the name the server announced in its Welcome.
func (c *Conn) ServerName() string { return c.server }

// Close tears down the connection. A blocked ReadMessage fails with
// net.ErrClosed.
func (c *Conn) Close() error { return c.conn.Close() }

// FormatUUID renders a session ID in the conventional dashed form.
func FormatUUID(id [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", id[0:4], id[4:6], id[6:8], id[8:10], id[10:16])
}
