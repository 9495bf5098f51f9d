package service

import (
	"sync/atomic"

	"landrent-backend/internal/domain"
)

// guard rejects nested entry into a mutating operation. Settlement
// transfers may call back into the service before the outer call
// returns; such calls fail instead of observing half-applied state.
type guard struct {
	entered atomic.Bool
}

func (g *guard) enter() error {
	if !g.entered.CompareAndSwap(false, true) {
		return domain.ErrReentrantCall
	}
	return nil
}

func (g *guard) exit() {
	g.entered.Store(false)
}
