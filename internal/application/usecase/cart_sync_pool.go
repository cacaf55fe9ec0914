// internal/application/usecase/cart_sync_pool.go
package usecase

import (
	"strings"
	"sync"

	cartdom "shopez/internal/domain/cart"
)

// CartSyncPool hands out one sync engine per user id.
//
// The HTTP surface is shared by every authenticated user, so a single engine
// would let one request's activation swap the cart out from under another
// user's in-flight request. Pinning each engine to its uid makes that
// impossible: a request only ever reads and mutates the engine owned by its
// own session.
//
// Engines are created on first use and live for the process; the per-user
// footprint is one cart map and one snapshot stream.
type CartSyncPool struct {
	remote cartdom.RemoteStore
	local  cartdom.LocalStore

	mu      sync.Mutex
	engines map[string]*CartSyncUsecase
}

func NewCartSyncPool(remote cartdom.RemoteStore, local cartdom.LocalStore) *CartSyncPool {
	return &CartSyncPool{
		remote:  remote,
		local:   local,
		engines: map[string]*CartSyncUsecase{},
	}
}

// Engine returns the engine owned by userID, creating it on first use. The
// same uid always gets the same instance.
func (p *CartSyncPool) Engine(userID string) *CartSyncUsecase {
	uid := strings.TrimSpace(userID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.engines[uid]; ok {
		return e
	}
	e := NewCartSyncUsecase(p.remote, p.local)
	p.engines[uid] = e
	return e
}

// DeactivateAll stops every engine's subscription. Called at shutdown so no
// snapshot delivery races client teardown.
func (p *CartSyncPool) DeactivateAll() {
	p.mu.Lock()
	engines := make([]*CartSyncUsecase, 0, len(p.engines))
	for _, e := range p.engines {
		engines = append(engines, e)
	}
	p.mu.Unlock()

	for _, e := range engines {
		e.Deactivate()
	}
}
