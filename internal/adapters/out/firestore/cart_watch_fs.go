// internal/adapters/out/firestore/cart_watch_fs.go
package firestore

import (
	"context"

	cartdom "shopez/internal/domain/cart"
)

// subscriptionFS adapts the Firestore snapshots iterator to cart.Subscription.
type subscriptionFS struct {
	ch     chan cartdom.Snapshot
	cancel context.CancelFunc
}

func (s *subscriptionFS) C() <-chan cartdom.Snapshot { return s.ch }

func (s *subscriptionFS) Stop() { s.cancel() }

// Watch opens a snapshot stream for the user's cart document.
//
// The iterator reconnects internally on transient transport errors; an error
// from Next is terminal, so it is delivered once and the stream is closed.
// The controller decides whether and when to resubscribe.
func (r *CartRemoteFS) Watch(ctx context.Context, userID string) (cartdom.Subscription, error) {
	uid, err := r.checkUID(userID)
	if err != nil {
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	it := r.col().Doc(uid).Snapshots(wctx)

	sub := &subscriptionFS{
		ch:     make(chan cartdom.Snapshot, 1),
		cancel: cancel,
	}

	go func() {
		defer close(sub.ch)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if wctx.Err() != nil {
					return // stopped by the caller
				}
				select {
				case sub.ch <- cartdom.Snapshot{Err: err}:
				case <-wctx.Done():
				}
				return
			}

			out := cartdom.Snapshot{Exists: snap.Exists()}
			if snap.Exists() {
				out.Cart = cartFromData(snap.Data())
			} else {
				out.Cart = cartdom.New()
			}

			select {
			case sub.ch <- out:
			case <-wctx.Done():
				return
			}
		}
	}()

	return sub, nil
}
