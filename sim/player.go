// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/player.go
// Summary: Owns the scene and advances its step script on a fixed interval,
// broadcasting each mutation to connected clients.

package sim

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wsmirror/wsmirror/internal/logging"
	"github.com/wsmirror/wsmirror/protocol"
)

// Broadcaster delivers a batch of messages to every connected client.
type Broadcaster interface {
	Broadcast(msgs ...protocol.Message)
}

// Player holds the live scene. All scene access, including the replay a new
// client receives, goes through its lock; the lock is acquired before any
// server lock so replay and broadcast cannot deadlock or reorder.
type Player struct {
	mu    sync.Mutex
	scene Scene
	steps []Step
	next  int
	sink  Broadcaster

	interval time.Duration
	quit     chan struct{}
	wg       sync.WaitGroup
	log      *logrus.Entry
}

func NewPlayer(scene Scene, steps []Step, interval time.Duration) *Player {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Player{
		scene:    scene,
		steps:    steps,
		interval: interval,
		quit:     make(chan struct{}),
		log:      logging.NewLogger("player"),
	}
}

// Replay implements ReplaySource. The callback runs under the scene lock so
// the snapshot a client receives is exactly the state every later broadcast
// builds on.
func (p *Player) Replay(fn func([]protocol.Message) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.scene.snapshotMessages())
}

// Start begins advancing the script against the given broadcaster.
func (p *Player) Start(sink Broadcaster) {
	p.mu.Lock()
	p.sink = sink
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Step()
			case <-p.quit:
				return
			}
		}
	}()
}

// Step applies the next scripted mutation and broadcasts it. The script
// wraps around at the end.
func (p *Player) Step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.steps) == 0 {
		return
	}
	step := p.steps[p.next]
	p.next = (p.next + 1) % len(p.steps)

	msgs := step.apply(&p.scene)
	if len(msgs) == 0 {
		return
	}
	p.log.WithFields(logrus.Fields{"step": p.next, "messages": len(msgs)}).Debug("advancing scene")
	if p.sink != nil {
		p.sink.Broadcast(msgs...)
	}
}

// Stop halts the script. Safe to call once.
func (p *Player) Stop() {
	close(p.quit)
	p.wg.Wait()
}
