// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/metrics.go
// Summary: Broadcast observability hooks for the simulated compositor.

package sim

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wsmirror/wsmirror/internal/logging"
)

// BroadcastStats summarises one broadcast for observability.
type BroadcastStats struct {
	Sessions int
	Messages int
	Failures int
	Duration time.Duration
}

// BroadcastObserver records broadcast metrics.
type BroadcastObserver interface {
	ObserveBroadcast(stats BroadcastStats)
}

// BroadcastLogger logs broadcast metrics.
type BroadcastLogger struct {
	log *logrus.Entry
}

// NewBroadcastLogger returns an observer that logs every broadcast.
func NewBroadcastLogger() *BroadcastLogger {
	return &BroadcastLogger{log: logging.NewLogger("sim")}
}

func (b *BroadcastLogger) ObserveBroadcast(stats BroadcastStats) {
	if b == nil || b.log == nil {
		return
	}
	b.log.WithFields(logrus.Fields{
		"sessions": stats.Sessions,
		"messages": stats.Messages,
		"failures": stats.Failures,
		"duration": stats.Duration,
	}).Debug("broadcast")
}
