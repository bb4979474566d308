package mirror

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/wsmirror/wsmirror/internal/logging"
)

// BridgeCapacity bounds the event channel between the dispatch goroutine and
// the consumer.
const BridgeCapacity = 16

// Bridge is the bounded single-producer channel carrying events out of the
// dispatch goroutine. Sends never block: when the consumer lags behind the
// capacity, events are dropped and counted instead of stalling dispatch.
type Bridge struct {
	ch      chan Event
	dropped atomic.Uint64
	log     *logrus.Entry
}

func NewBridge() *Bridge {
	return &Bridge{
		ch:  make(chan Event, BridgeCapacity),
		log: logging.NewLogger("bridge"),
	}
}

// TrySend delivers best-effort and reports whether the event was accepted.
func (b *Bridge) TrySend(ev Event) bool {
	select {
	case b.ch <- ev:
		return true
	default:
		n := b.dropped.Add(1)
		b.log.WithFields(logrus.Fields{"kind": ev.Kind(), "dropped": n}).Warn("consumer slow, dropping event")
		return false
	}
}

// Events returns the consumer side of the channel. It is closed by the
// producer when no further events will arrive.
func (b *Bridge) Events() <-chan Event { return b.ch }

// Close ends the stream. Only the producing side may call it, exactly once.
func (b *Bridge) Close() { close(b.ch) }

// Dropped reports how many events were discarded because the channel was full.
func (b *Bridge) Dropped() uint64 { return b.dropped.Load() }
