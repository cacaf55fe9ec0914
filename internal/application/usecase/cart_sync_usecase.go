// internal/application/usecase/cart_sync_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	cartdom "shopez/internal/domain/cart"
	productdom "shopez/internal/domain/product"
	userdom "shopez/internal/domain/user"
)

var (
	ErrNotAuthenticated = errors.New("cart_sync: not authenticated")
	ErrInvalidArgument  = errors.New("cart_sync: invalid argument")
)

// State of the engine for the active session.
type State int

const (
	StateIdle     State = iota // no user id
	StateLoading               // seeded from cache, subscription not yet delivered
	StateSynced                // subscription has delivered at least one snapshot
	StateDegraded              // subscription or a write failed; local-only data
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSynced:
		return "synced"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Notice tells the caller which user-visible outcome to show for a mutation.
// Callers await a mutation only to pick the notice, not to block interaction.
type Notice int

const (
	NoticeSynced  Notice = iota // confirmed by the remote store
	NoticeOffline               // applied to the local mirror only
)

// CartSyncUsecase owns the in-memory cart for the active session and keeps it
// consistent with the remote store and the local cache.
//
// The remote store is authoritative: every delivered snapshot replaces the
// in-memory cart and the local mirror wholesale (last writer wins). An
// optimistic local fallback value therefore survives only until the next
// snapshot; unconfirmed local writes are never merged into server state.
// Mutations are not serialized against each other or against in-flight
// deliveries, so two writes issued in quick succession may race and the UI
// may briefly show a stale value until the remote echo arrives.
type CartSyncUsecase struct {
	remote cartdom.RemoteStore
	local  cartdom.LocalStore

	// actMu serializes Activate/Deactivate end to end. The cache seed and
	// the watch open happen outside uc.mu (both block), so without this two
	// concurrent Activate calls for the same uid would each pass the
	// idempotency check and the later install would leak the earlier
	// subscription and its consume goroutine.
	actMu sync.Mutex

	mu      sync.Mutex
	session userdom.Session
	state   State
	cart    cartdom.Cart
	sub     cartdom.Subscription
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewCartSyncUsecase(remote cartdom.RemoteStore, local cartdom.LocalStore) *CartSyncUsecase {
	return &CartSyncUsecase{
		remote: remote,
		local:  local,
		state:  StateIdle,
		cart:   cartdom.New(),
	}
}

// Activate starts the engine for a session.
//
// Idempotent per user id: re-activation for the already active user is a
// no-op for subscription setup. A different user id (or an inactive session)
// tears down the prior subscription and clears state first.
//
// The local cache entry for the user, if any, is published as provisional
// state while the subscription warms up.
func (uc *CartSyncUsecase) Activate(ctx context.Context, session userdom.Session) error {
	uc.actMu.Lock()
	defer uc.actMu.Unlock()

	if !session.Active() {
		uc.deactivate()
		return nil
	}
	uid := strings.TrimSpace(session.UID)

	uc.mu.Lock()
	if uc.sub != nil && uc.session.UID == uid {
		uc.mu.Unlock()
		return nil
	}
	prevDone := uc.done
	uc.teardownLocked()
	uc.session = userdom.Session{UID: uid}
	uc.state = StateLoading
	uc.cart = cartdom.New()
	uc.mu.Unlock()

	if prevDone != nil {
		<-prevDone
	}

	if cached, ok, err := uc.local.Read(ctx, uid); err != nil {
		log.Printf("[cart_sync] local seed failed uid=%s: %v", uid, err)
	} else if ok {
		uc.mu.Lock()
		if uc.session.UID == uid && uc.state == StateLoading {
			uc.cart = cached.Clone()
		}
		uc.mu.Unlock()
	}

	// The subscription outlives the activating request, so it must not ride
	// on the request's cancellation.
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := uc.remote.Watch(wctx, uid)
	if err != nil {
		cancel()
		log.Printf("[cart_sync] watch open failed uid=%s, serving cached cart: %v", uid, err)
		uc.mu.Lock()
		if uc.session.UID == uid {
			uc.state = StateDegraded
		}
		uc.mu.Unlock()
		return nil
	}

	done := make(chan struct{})

	uc.mu.Lock()
	uc.sub = sub
	uc.cancel = cancel
	uc.done = done
	uc.mu.Unlock()

	go uc.consume(uid, sub, done)
	return nil
}

// Deactivate cancels the subscription and clears in-memory state. It must be
// called when the session ends; no snapshot delivery mutates state after it
// returns.
func (uc *CartSyncUsecase) Deactivate() {
	uc.actMu.Lock()
	defer uc.actMu.Unlock()
	uc.deactivate()
}

// deactivate tears down and waits for the consume loop. Callers hold actMu.
func (uc *CartSyncUsecase) deactivate() {
	uc.mu.Lock()
	done := uc.done
	uc.teardownLocked()
	uc.mu.Unlock()

	if done != nil {
		<-done
	}
}

// teardownLocked resets to Idle. Callers hold uc.mu.
func (uc *CartSyncUsecase) teardownLocked() {
	if uc.cancel != nil {
		uc.cancel()
		uc.cancel = nil
	}
	if uc.sub != nil {
		uc.sub.Stop()
		uc.sub = nil
	}
	uc.done = nil
	uc.session = userdom.Session{}
	uc.state = StateIdle
	uc.cart = cartdom.New()
}

// consume applies snapshot deliveries until the stream closes.
func (uc *CartSyncUsecase) consume(uid string, sub cartdom.Subscription, done chan struct{}) {
	defer close(done)

	for snap := range sub.C() {
		if snap.Err != nil {
			uc.degrade(uid, snap.Err)
			continue
		}

		next := snap.Cart
		if next == nil || !snap.Exists {
			next = cartdom.New()
		}

		uc.mu.Lock()
		if uc.session.UID != uid {
			uc.mu.Unlock()
			return
		}
		uc.cart = next.Clone()
		uc.state = StateSynced
		uc.mu.Unlock()

		// Best-effort mirror; never the system of record on this path.
		if err := uc.local.Write(context.Background(), uid, next); err != nil {
			log.Printf("[cart_sync] cache mirror failed uid=%s: %v", uid, err)
		}
	}
}

// degrade falls back to whatever the local cache holds for the user. No
// automatic resubscription happens here; the remote store's own reconnection
// re-triggers delivery.
func (uc *CartSyncUsecase) degrade(uid string, cause error) {
	log.Printf("[cart_sync] subscription failed uid=%s, serving cached cart: %v", uid, cause)

	cached, ok, err := uc.local.Read(context.Background(), uid)
	if err != nil {
		log.Printf("[cart_sync] cache read failed uid=%s: %v", uid, err)
		ok = false
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.session.UID != uid {
		return
	}
	if ok {
		uc.cart = cached.Clone()
	} else {
		uc.cart = cartdom.New()
	}
	uc.state = StateDegraded
}

// AddItem reads the existing remote line and writes back the summed quantity
// with the (possibly refreshed) product snapshot, or creates the line. On any
// failure in the read-then-write sequence the item is merged into the local
// cache instead.
func (uc *CartSyncUsecase) AddItem(ctx context.Context, p productdom.Product, qty int) (Notice, error) {
	uid, ok := uc.activeUID()
	if !ok {
		return NoticeSynced, ErrNotAuthenticated
	}
	if !p.Valid() || qty <= 0 {
		return NoticeSynced, ErrInvalidArgument
	}

	if err := uc.addRemote(ctx, uid, p, qty); err != nil {
		log.Printf("[cart_sync] remote add failed uid=%s product=%s: %v", uid, p.ID, err)
		return uc.fallback(ctx, uid, func(c cartdom.Cart) error {
			return c.Add(p, qty)
		})
	}

	// Refresh the mirror from the authoritative copy. The subscription echo
	// does this too, but the matching read keeps the cache warm even when
	// the stream is between deliveries.
	if full, exists, err := uc.remote.Read(ctx, uid); err == nil && exists {
		if werr := uc.local.Write(ctx, uid, full); werr != nil {
			log.Printf("[cart_sync] cache refresh failed uid=%s: %v", uid, werr)
		}
	}
	return NoticeSynced, nil
}

func (uc *CartSyncUsecase) addRemote(ctx context.Context, uid string, p productdom.Product, qty int) error {
	existing, found, err := uc.remote.ReadItem(ctx, uid, p.ID)
	if err != nil {
		return err
	}

	line := cartdom.Line{Quantity: qty, Product: p}
	if found {
		q := existing.Quantity
		if q < 1 {
			q = 1
		}
		line.Quantity = q + qty
	}
	return uc.remote.SetItem(ctx, uid, p.ID, line)
}

// SetQuantity point-updates the remote line. On success the in-memory cart is
// left untouched: the subscription echo applies the change, so the view may
// briefly show the old quantity. On failure the quantity is corrected in the
// local cache and in memory immediately.
//
// qty <= 0 removes the item instead of persisting a non-positive quantity.
func (uc *CartSyncUsecase) SetQuantity(ctx context.Context, productID string, qty int) (Notice, error) {
	uid, ok := uc.activeUID()
	if !ok {
		return NoticeSynced, ErrNotAuthenticated
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return NoticeSynced, ErrInvalidArgument
	}
	if qty <= 0 {
		return uc.RemoveItem(ctx, pid)
	}

	if err := uc.remote.UpdateQuantity(ctx, uid, pid, qty); err != nil {
		log.Printf("[cart_sync] remote quantity update failed uid=%s product=%s: %v", uid, pid, err)
		return uc.fallback(ctx, uid, func(c cartdom.Cart) error {
			return c.SetQuantity(pid, qty)
		})
	}
	return NoticeSynced, nil
}

// RemoveItem point-deletes the remote line, falling back to a local delete.
func (uc *CartSyncUsecase) RemoveItem(ctx context.Context, productID string) (Notice, error) {
	uid, ok := uc.activeUID()
	if !ok {
		return NoticeSynced, ErrNotAuthenticated
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return NoticeSynced, ErrInvalidArgument
	}

	if err := uc.remote.DeleteItem(ctx, uid, pid); err != nil {
		log.Printf("[cart_sync] remote delete failed uid=%s product=%s: %v", uid, pid, err)
		return uc.fallback(ctx, uid, func(c cartdom.Cart) error {
			c.Remove(pid)
			return nil
		})
	}
	return NoticeSynced, nil
}

// fallback applies mutate to the cached cart, persists it, and promotes the
// result to in-memory state, leaving cache and memory mutually consistent.
// If the fallback itself fails, no state is mutated and the caller gets a
// hard error.
func (uc *CartSyncUsecase) fallback(ctx context.Context, uid string, mutate func(cartdom.Cart) error) (Notice, error) {
	cached, _, err := uc.local.Read(ctx, uid)
	if err != nil {
		return NoticeSynced, fmt.Errorf("cart_sync: offline fallback: %w", err)
	}
	if cached == nil {
		cached = cartdom.New()
	}

	if err := mutate(cached); err != nil {
		return NoticeSynced, err
	}
	if err := uc.local.Write(ctx, uid, cached); err != nil {
		return NoticeSynced, fmt.Errorf("cart_sync: offline fallback: %w", err)
	}

	uc.mu.Lock()
	if uc.session.UID == uid {
		uc.cart = cached.Clone()
		uc.state = StateDegraded
	}
	uc.mu.Unlock()

	return NoticeOffline, nil
}

// View renders the current in-memory cart.
func (uc *CartSyncUsecase) View() cartdom.View {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Render()
}

func (uc *CartSyncUsecase) State() State {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

func (uc *CartSyncUsecase) activeUID() (string, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if !uc.session.Active() {
		return "", false
	}
	return uc.session.UID, true
}
