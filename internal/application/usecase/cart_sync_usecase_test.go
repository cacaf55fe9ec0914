// internal/application/usecase/cart_sync_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cartdom "shopez/internal/domain/cart"
	productdom "shopez/internal/domain/product"
	userdom "shopez/internal/domain/user"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeSub struct {
	ch      chan cartdom.Snapshot
	mu      sync.Mutex
	stopped bool
}

func newFakeSub() *fakeSub {
	return &fakeSub{ch: make(chan cartdom.Snapshot, 8)}
}

func (s *fakeSub) C() <-chan cartdom.Snapshot { return s.ch }

func (s *fakeSub) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.ch)
	}
}

func (s *fakeSub) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *fakeSub) push(snap cartdom.Snapshot) { s.ch <- snap }

var errRemoteDown = errors.New("remote unreachable")

type fakeRemote struct {
	mu         sync.Mutex
	carts      map[string]cartdom.Cart
	failOps    bool
	watchErr   error
	watchDelay time.Duration
	watchCount int
	subs       []*fakeSub
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{carts: map[string]cartdom.Cart{}}
}

func (r *fakeRemote) setFailOps(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOps = v
}

func (r *fakeRemote) cart(uid string) cartdom.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[uid]; ok {
		return c.Clone()
	}
	return nil
}

func (r *fakeRemote) lastSub() *fakeSub {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.subs) == 0 {
		return nil
	}
	return r.subs[len(r.subs)-1]
}

func (r *fakeRemote) watchCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watchCount
}

func (r *fakeRemote) allSubs() []*fakeSub {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeSub(nil), r.subs...)
}

func (r *fakeRemote) Read(ctx context.Context, userID string) (cartdom.Cart, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOps {
		return nil, false, errRemoteDown
	}
	c, ok := r.carts[userID]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (r *fakeRemote) ReadItem(ctx context.Context, userID, productID string) (cartdom.Line, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOps {
		return cartdom.Line{}, false, errRemoteDown
	}
	c, ok := r.carts[userID]
	if !ok {
		return cartdom.Line{}, false, nil
	}
	line, ok := c[productID]
	return line, ok, nil
}

func (r *fakeRemote) SetItem(ctx context.Context, userID, productID string, line cartdom.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOps {
		return errRemoteDown
	}
	if r.carts[userID] == nil {
		r.carts[userID] = cartdom.New()
	}
	r.carts[userID][productID] = line
	return nil
}

func (r *fakeRemote) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOps {
		return errRemoteDown
	}
	c, ok := r.carts[userID]
	if !ok {
		return errors.New("document not found")
	}
	line, ok := c[productID]
	if !ok {
		return errors.New("line not found")
	}
	line.Quantity = qty
	c[productID] = line
	return nil
}

func (r *fakeRemote) DeleteItem(ctx context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOps {
		return errRemoteDown
	}
	if c, ok := r.carts[userID]; ok {
		delete(c, productID)
	}
	return nil
}

func (r *fakeRemote) Seed(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOps {
		return errRemoteDown
	}
	if r.carts[userID] == nil {
		r.carts[userID] = cartdom.New()
	}
	return nil
}

func (r *fakeRemote) Watch(ctx context.Context, userID string) (cartdom.Subscription, error) {
	r.mu.Lock()
	delay := r.watchDelay
	r.mu.Unlock()
	if delay > 0 {
		// widens the stream-open window so overlapping activations collide
		time.Sleep(delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchCount++
	if r.watchErr != nil {
		return nil, r.watchErr
	}
	sub := newFakeSub()
	r.subs = append(r.subs, sub)
	return sub, nil
}

type fakeLocal struct {
	mu        sync.Mutex
	data      map[string]cartdom.Cart
	failRead  bool
	failWrite bool
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{data: map[string]cartdom.Cart{}}
}

func (l *fakeLocal) seed(uid string, c cartdom.Cart) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[uid] = c.Clone()
}

func (l *fakeLocal) cart(uid string) cartdom.Cart {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.data[uid]; ok {
		return c.Clone()
	}
	return nil
}

func (l *fakeLocal) Read(ctx context.Context, userID string) (cartdom.Cart, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failRead {
		return nil, false, errors.New("cache read failed")
	}
	c, ok := l.data[userID]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (l *fakeLocal) Write(ctx context.Context, userID string, c cartdom.Cart) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrite {
		return errors.New("cache write failed")
	}
	l.data[userID] = c.Clone()
	return nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

const testUID = "user-1"

func testProduct(id string, price float64) productdom.Product {
	return productdom.Product{ID: id, Title: "thing " + id, Price: price, Image: "https://img/" + id}
}

func cartWith(id string, qty int, price float64) cartdom.Cart {
	c := cartdom.New()
	c[id] = cartdom.Line{Quantity: qty, Product: testProduct(id, price)}
	return c
}

func activate(t *testing.T, uc *CartSyncUsecase, uid string) {
	t.Helper()
	require.NoError(t, uc.Activate(context.Background(), userdom.Session{UID: uid}))
}

func waitState(t *testing.T, uc *CartSyncUsecase, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return uc.State() == want },
		2*time.Second, 10*time.Millisecond, "expected state %s", want)
}

func quantityOf(v cartdom.View, productID string) int {
	for _, it := range v.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// activation & subscription
// ---------------------------------------------------------------------------

func TestActivate_SeedsProvisionalStateFromCache(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	require.Equal(t, StateLoading, uc.State())
	require.Equal(t, 2, quantityOf(uc.View(), "9"))
}

func TestActivate_SameUserIsNoOpForSubscription(t *testing.T) {
	remote := newFakeRemote()
	uc := NewCartSyncUsecase(remote, newFakeLocal())

	activate(t, uc, testUID)
	activate(t, uc, testUID)
	activate(t, uc, testUID)

	require.Equal(t, 1, remote.watchCount)
}

func TestActivate_ConcurrentRequestsShareOneSubscription(t *testing.T) {
	remote := newFakeRemote()
	remote.watchDelay = 50 * time.Millisecond
	uc := NewCartSyncUsecase(remote, newFakeLocal())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = uc.Activate(context.Background(), userdom.Session{UID: testUID})
		}()
	}
	wg.Wait()

	require.Equal(t, 1, remote.watchCalls())

	// every opened stream is owned, so deactivation leaves none running
	uc.Deactivate()
	for _, sub := range remote.allSubs() {
		require.True(t, sub.isStopped())
	}
	require.Equal(t, StateIdle, uc.State())
}

func TestActivate_UserSwitchTearsDownPriorSubscription(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	local.seed("user-1", cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, "user-1")
	first := remote.lastSub()

	activate(t, uc, "user-2")

	require.Equal(t, 2, remote.watchCount)
	require.True(t, first.isStopped())
	// no leak of user-1's cart into user-2's view
	require.Empty(t, uc.View().Items)
}

func TestActivate_InactiveSessionClearsState(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)
	require.NoError(t, uc.Activate(context.Background(), userdom.Session{}))

	require.Equal(t, StateIdle, uc.State())
	require.Empty(t, uc.View().Items)
}

func TestActivate_WatchOpenFailureDegrades(t *testing.T) {
	remote := newFakeRemote()
	remote.watchErr = errRemoteDown
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	require.Equal(t, StateDegraded, uc.State())
	require.Equal(t, 2, quantityOf(uc.View(), "9"))
}

func TestConsume_SnapshotReplacesStateAndMirrorsCache(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	remote.lastSub().push(cartdom.Snapshot{Cart: cartWith("9", 3, 22.3), Exists: true})
	waitState(t, uc, StateSynced)

	require.Equal(t, 3, quantityOf(uc.View(), "9"))
	require.Eventually(t, func() bool {
		c := local.cart(testUID)
		return c != nil && c["9"].Quantity == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsume_EmptySnapshotClearsStateAndCache(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)
	require.Equal(t, 2, quantityOf(uc.View(), "9"))

	// confirmed-empty document
	remote.lastSub().push(cartdom.Snapshot{Exists: false})
	waitState(t, uc, StateSynced)

	require.Empty(t, uc.View().Items)
	require.Eventually(t, func() bool {
		c := local.cart(testUID)
		return c != nil && len(c) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsume_StreamErrorFallsBackToCache(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	remote.lastSub().push(cartdom.Snapshot{Err: errRemoteDown})
	waitState(t, uc, StateDegraded)

	require.Equal(t, 2, quantityOf(uc.View(), "9"))
}

func TestDeactivate_StopsSubscriptionAndClearsState(t *testing.T) {
	remote := newFakeRemote()
	uc := NewCartSyncUsecase(remote, newFakeLocal())
	activate(t, uc, testUID)
	sub := remote.lastSub()

	uc.Deactivate()

	require.True(t, sub.isStopped())
	require.Equal(t, StateIdle, uc.State())
	require.Empty(t, uc.View().Items)
}

// ---------------------------------------------------------------------------
// mutations
// ---------------------------------------------------------------------------

func TestAddItem_CreatesRemoteLine(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	notice, err := uc.AddItem(context.Background(), testProduct("9", 22.3), 2)
	require.NoError(t, err)
	require.Equal(t, NoticeSynced, notice)

	c := remote.cart(testUID)
	require.Equal(t, 2, c["9"].Quantity)
	require.InDelta(t, 22.3, c["9"].Product.Price, 1e-9)

	// the matching read refreshed the mirror
	mirrored := local.cart(testUID)
	require.NotNil(t, mirrored)
	require.Equal(t, 2, mirrored["9"].Quantity)
}

func TestAddItem_AccumulatesExistingQuantity(t *testing.T) {
	remote := newFakeRemote()
	uc := NewCartSyncUsecase(remote, newFakeLocal())
	activate(t, uc, testUID)

	_, err := uc.AddItem(context.Background(), testProduct("9", 22.3), 2)
	require.NoError(t, err)
	_, err = uc.AddItem(context.Background(), testProduct("9", 22.3), 3)
	require.NoError(t, err)

	require.Equal(t, 5, remote.cart(testUID)["9"].Quantity)
}

func TestAddItem_RemoteFailureMergesIntoCache(t *testing.T) {
	remote := newFakeRemote()
	remote.setFailOps(true)
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	notice, err := uc.AddItem(context.Background(), testProduct("9", 22.3), 1)
	require.NoError(t, err)
	require.Equal(t, NoticeOffline, notice)

	// cache and in-memory state are mutually consistent
	require.Equal(t, 3, local.cart(testUID)["9"].Quantity)
	require.Equal(t, 3, quantityOf(uc.View(), "9"))
	require.Equal(t, StateDegraded, uc.State())
}

func TestSetQuantity_SuccessWaitsForRemoteEcho(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	// the line must exist remotely for a point update to succeed
	require.NoError(t, remote.SetItem(context.Background(), testUID, "9",
		cartdom.Line{Quantity: 2, Product: testProduct("9", 22.3)}))
	remote.lastSub().push(cartdom.Snapshot{Cart: remote.cart(testUID), Exists: true})
	waitState(t, uc, StateSynced)

	notice, err := uc.SetQuantity(context.Background(), "9", 5)
	require.NoError(t, err)
	require.Equal(t, NoticeSynced, notice)

	// the write itself does not mutate local state; the view is stale until
	// the subscription echoes the server's truth
	require.Equal(t, 5, remote.cart(testUID)["9"].Quantity)
	require.Equal(t, 2, quantityOf(uc.View(), "9"))

	remote.lastSub().push(cartdom.Snapshot{Cart: remote.cart(testUID), Exists: true})
	require.Eventually(t, func() bool { return quantityOf(uc.View(), "9") == 5 },
		2*time.Second, 10*time.Millisecond)
}

func TestSetQuantity_RemoteFailureFallsBackLocally(t *testing.T) {
	remote := newFakeRemote()
	remote.setFailOps(true)
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	notice, err := uc.SetQuantity(context.Background(), "9", 5)
	require.NoError(t, err)
	require.Equal(t, NoticeOffline, notice)

	require.Equal(t, 5, local.cart(testUID)["9"].Quantity)
	require.Equal(t, 5, quantityOf(uc.View(), "9"))
	require.Equal(t, StateDegraded, uc.State())
}

func TestSetQuantity_NonPositiveDeletesLine(t *testing.T) {
	remote := newFakeRemote()
	uc := NewCartSyncUsecase(remote, newFakeLocal())
	activate(t, uc, testUID)

	_, err := uc.AddItem(context.Background(), testProduct("9", 22.3), 2)
	require.NoError(t, err)

	notice, err := uc.SetQuantity(context.Background(), "9", 0)
	require.NoError(t, err)
	require.Equal(t, NoticeSynced, notice)
	require.NotContains(t, remote.cart(testUID), "9")

	notice, err = uc.SetQuantity(context.Background(), "9", -4)
	require.NoError(t, err)
	require.Equal(t, NoticeSynced, notice)
}

func TestRemoveItem_RemoteFailureRemovesFromCache(t *testing.T) {
	remote := newFakeRemote()
	remote.setFailOps(true)
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	notice, err := uc.RemoveItem(context.Background(), "9")
	require.NoError(t, err)
	require.Equal(t, NoticeOffline, notice)

	require.NotContains(t, local.cart(testUID), "9")
	require.Empty(t, uc.View().Items)
}

func TestRemoteSnapshotOverridesLocalFallback(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)

	// optimistic local write while the remote is unreachable
	remote.setFailOps(true)
	_, err := uc.SetQuantity(context.Background(), "9", 5)
	require.NoError(t, err)
	require.Equal(t, 5, quantityOf(uc.View(), "9"))

	// the server's truth arrives: last writer wins, the unconfirmed local
	// value is discarded, not merged
	remote.lastSub().push(cartdom.Snapshot{Cart: cartWith("9", 3, 22.3), Exists: true})
	require.Eventually(t, func() bool { return quantityOf(uc.View(), "9") == 3 },
		2*time.Second, 10*time.Millisecond)
	require.Equal(t, 3, local.cart(testUID)["9"].Quantity)
	require.Equal(t, StateSynced, uc.State())
}

func TestMutations_WithoutSessionAreNoOps(t *testing.T) {
	remote := newFakeRemote()
	uc := NewCartSyncUsecase(remote, newFakeLocal())

	_, err := uc.AddItem(context.Background(), testProduct("9", 22.3), 1)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = uc.SetQuantity(context.Background(), "9", 2)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = uc.RemoveItem(context.Background(), "9")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.Nil(t, remote.cart(testUID))
}

func TestFallbackFailure_IsHardErrorWithoutMutation(t *testing.T) {
	remote := newFakeRemote()
	remote.setFailOps(true)
	local := newFakeLocal()
	local.seed(testUID, cartWith("9", 2, 22.3))

	uc := NewCartSyncUsecase(remote, local)
	activate(t, uc, testUID)
	local.mu.Lock()
	local.failWrite = true
	local.mu.Unlock()

	_, err := uc.SetQuantity(context.Background(), "9", 5)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotAuthenticated)

	// neither copy was mutated
	require.Equal(t, 2, quantityOf(uc.View(), "9"))
}
