// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/server_test.go
// Summary: End-to-end exercise of the simulator: replay on connect, scripted
// broadcasts, and clean shutdown, observed through a real subscription.

package sim

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wsmirror/wsmirror/mirror"
)

func waitEvent(t *testing.T, sub *mirror.Subscription) mirror.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("event channel closed early")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func waitClosed(t *testing.T, sub *mirror.Subscription) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel never closed")
		}
	}
}

func waitSessions(t *testing.T, srv *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if srv.ActiveSessions() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d active sessions, have %d", want, srv.ActiveSessions())
}

func TestServerReplayAndBroadcast(t *testing.T) {
	scene, steps, err := LoadScene("default")
	if err != nil {
		t.Fatalf("load scene: %v", err)
	}
	player := NewPlayer(scene, steps, time.Hour)

	sock := filepath.Join(t.TempDir(), "sim.sock")
	srv := NewServer(sock, player)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	player.Start(srv)
	defer player.Stop()

	sub := mirror.Subscribe(mirror.Options{Socket: sock, Client: "it-one"})

	// Replay: the full scene arrives as one workspace batch plus the two
	// existing toplevels.
	ev := waitEvent(t, sub)
	changed, ok := ev.(mirror.WorkspacesChanged)
	if !ok {
		t.Fatalf("expected WorkspacesChanged, got %T", ev)
	}
	if len(changed.Workspaces) != 3 || changed.Workspaces[0].Name != "1" || !changed.Workspaces[0].Active {
		t.Fatalf("unexpected replayed workspaces: %+v", changed.Workspaces)
	}
	first, ok := waitEvent(t, sub).(mirror.ToplevelAdded)
	if !ok || first.Toplevel.AppID != "org.gnome.Terminal" {
		t.Fatalf("unexpected first toplevel: %+v", first)
	}
	second, ok := waitEvent(t, sub).(mirror.ToplevelAdded)
	if !ok || second.Toplevel.AppID != "firefox" {
		t.Fatalf("unexpected second toplevel: %+v", second)
	}

	// Scripted step one: workspace "2" becomes active.
	player.Step()
	ev = waitEvent(t, sub)
	changed, ok = ev.(mirror.WorkspacesChanged)
	if !ok {
		t.Fatalf("expected WorkspacesChanged after step, got %T", ev)
	}
	if !changed.Workspaces[1].Active || changed.Workspaces[0].Active {
		t.Fatalf("activation not reflected: %+v", changed.Workspaces)
	}

	// A late client replays the stepped scene, not the original one.
	sub2 := mirror.Subscribe(mirror.Options{Socket: sock, Client: "it-two"})
	ev = waitEvent(t, sub2)
	changed, ok = ev.(mirror.WorkspacesChanged)
	if !ok || !changed.Workspaces[1].Active {
		t.Fatalf("late join replayed stale state: %+v", ev)
	}
	waitEvent(t, sub2) // Terminal
	waitEvent(t, sub2) // Firefox
	waitSessions(t, srv, 2)

	// Scripted step two reaches both clients.
	player.Step()
	for _, s := range []*mirror.Subscription{sub, sub2} {
		added, ok := waitEvent(t, s).(mirror.ToplevelAdded)
		if !ok || added.Toplevel.AppID != "org.kde.kate" {
			t.Fatalf("broadcast missed a client: %+v", added)
		}
		if added.Toplevel.Workspace != 11 {
			t.Fatalf("new toplevel on wrong workspace: %+v", added.Toplevel)
		}
	}

	// Shutdown closes every stream cleanly.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("stop server: %v", err)
	}
	waitClosed(t, sub)
	waitClosed(t, sub2)
	if err := sub.Err(); err != nil {
		t.Fatalf("clean shutdown surfaced an error: %v", err)
	}
}

func TestServerStopIdempotent(t *testing.T) {
	srv := NewServer(filepath.Join(t.TempDir(), "sim.sock"), nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
