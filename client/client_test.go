// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: client/client_test.go
// Summary: Exercises the dial handshake against a minimal in-test server.

package client

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/wsmirror/wsmirror/protocol"
)

// serveHandshake accepts one connection and answers the Hello with the given
// message type, then keeps the connection open for follow-up traffic.
func serveHandshake(t *testing.T, sock string, replyType protocol.MessageType, id [16]byte) <-chan net.Conn {
	t.Helper()
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	connCh := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		hdr, payload, err := protocol.ReadMessage(c)
		if err != nil || hdr.Type != protocol.MsgHello {
			c.Close()
			return
		}
		if _, err := protocol.DecodeHello(payload); err != nil {
			c.Close()
			return
		}

		body, err := protocol.EncodeWelcome(protocol.Welcome{SessionID: id, ServerName: "test-server"})
		if err != nil {
			c.Close()
			return
		}
		reply := protocol.Header{
			Version:   protocol.Version,
			Type:      replyType,
			Flags:     protocol.FlagChecksum,
			SessionID: id,
		}
		if err := protocol.WriteMessage(c, reply, body); err != nil {
			c.Close()
			return
		}
		connCh <- c
	}()
	return connCh
}

func TestDialHandshake(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "session.sock")
	id := [16]byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	connCh := serveHandshake(t, sock, protocol.MsgWelcome, id)

	conn, err := Dial(sock, "test-client")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if conn.SessionID() != id {
		t.Errorf("session id = %x, want %x", conn.SessionID(), id)
	}
	if conn.ServerName() != "test-server" {
		t.Errorf("server name = %q, want %q", conn.ServerName(), "test-server")
	}

	// The established connection must deliver decoded server messages.
	server := <-connCh
	body, err := protocol.EncodeOutputNew(protocol.OutputNew{Output: 7, Name: "DP-1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	hdr := protocol.Header{Version: protocol.Version, Type: protocol.MsgOutputNew, Flags: protocol.FlagChecksum, SessionID: id, Sequence: 1}
	if err := protocol.WriteMessage(server, hdr, body); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	out, ok := msg.(protocol.OutputNew)
	if !ok {
		t.Fatalf("message type = %T, want protocol.OutputNew", msg)
	}
	if out.Output != 7 || out.Name != "DP-1" {
		t.Errorf("decoded %+v, want Output=7 Name=DP-1", out)
	}
}

func TestDialRejectsNonWelcome(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "session.sock")
	serveHandshake(t, sock, protocol.MsgHello, [16]byte{})

	if _, err := Dial(sock, "test-client"); err == nil {
		t.Fatal("Dial accepted a handshake that never sent Welcome")
	}
}

func TestDialMissingSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "absent.sock")
	if _, err := Dial(sock, "test-client"); err == nil {
		t.Fatal("Dial succeeded against a missing socket")
	}
}

func TestFormatUUID(t *testing.T) {
	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	got := FormatUUID(id)
	want := "12345678-9abc-def0-1122-334455667788"
	if got != want {
		t.Errorf("FormatUUID = %q, want %q", got, want)
	}
}
