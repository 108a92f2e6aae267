package client

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces request ids for outgoing calls. The default
// generator must be safe for concurrent use; SequenceIDGenerator uses an
// atomic counter to satisfy that requirement.
type IDGenerator interface {
	NextID() string
}

// RandomIDGenerator renders a random 128-bit id as hex, via
// google/uuid rather than hand-rolled crypto/rand formatting.
type RandomIDGenerator struct{}

func (RandomIDGenerator) NextID() string {
	id := uuid.New()
	return id.String()
}

// SequenceIDGenerator produces a monotonically increasing decimal
// sequence, useful for deterministic tests.
type SequenceIDGenerator struct {
	counter int64
}

func (g *SequenceIDGenerator) NextID() string {
	n := atomic.AddInt64(&g.counter, 1)
	return strconv.FormatInt(n, 10)
}
