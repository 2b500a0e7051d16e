package events

import (
	"sync/atomic"
	"time"
)

type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
	// Seq orders events by creation. Delivery may be reordered across
	// goroutines; creation order is not.
	Seq() uint64
}

var lastSeq atomic.Uint64

type Base struct {
	kind      Kind
	timestamp time.Time
	seq       uint64
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now(), seq: lastSeq.Add(1)}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.timestamp }
func (b Base) Seq() uint64          { return b.seq }
