// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/handshake.go
// Summary: Performs the server side of the Hello/Welcome negotiation.

package sim

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/wsmirror/wsmirror/protocol"
)

var errUnexpectedMessage = errors.New("sim: unexpected message type")

// handleHandshake reads the client's Hello and answers with a Welcome
// carrying a freshly issued session id.
func handleHandshake(rw io.ReadWriter, serverName string) ([16]byte, protocol.Hello, error) {
	var id [16]byte

	hdr, payload, err := protocol.ReadMessage(rw)
	if err != nil {
		return id, protocol.Hello{}, err
	}
	if hdr.Type != protocol.MsgHello {
		return id, protocol.Hello{}, errUnexpectedMessage
	}
	hello, err := protocol.DecodeHello(payload)
	if err != nil {
		return id, protocol.Hello{}, err
	}

	if _, err := rand.Read(id[:]); err != nil {
		return id, protocol.Hello{}, err
	}

	welcomePayload, err := protocol.EncodeWelcome(protocol.Welcome{SessionID: id, ServerName: serverName})
	if err != nil {
		return id, protocol.Hello{}, err
	}
	welcomeHeader := protocol.Header{
		Version:   protocol.Version,
		Type:      protocol.MsgWelcome,
		Flags:     protocol.FlagChecksum,
		SessionID: id,
	}
	if err := protocol.WriteMessage(rw, welcomeHeader, welcomePayload); err != nil {
		return id, protocol.Hello{}, err
	}

	return id, hello, nil
}
