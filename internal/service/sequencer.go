package service

import (
	"context"
	"sync"
)

// Sequencer totally orders mutating calls that arrive concurrently. The
// first call to acquire it is applied first; later calls observe its
// effects.
type Sequencer struct {
	mu sync.Mutex
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Do runs fn alone. A context cancelled while waiting is reported without
// running fn.
func (s *Sequencer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
