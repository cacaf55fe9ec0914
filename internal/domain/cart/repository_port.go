// internal/domain/cart/repository_port.go
package cart

import "context"

// Snapshot is a complete point-in-time copy of a user's cart document as
// delivered by the remote store's subscription. It is always the whole
// document, never a diff.
//
// When Err is set the delivery is a transport failure and Cart/Exists are
// undefined.
type Snapshot struct {
	Cart   Cart
	Exists bool
	Err    error
}

// Subscription is a handle on an open snapshot stream.
type Subscription interface {
	// C delivers snapshots until Stop is called. The channel is closed once
	// the stream terminates, whether by Stop or by an unrecoverable error
	// (reported as a final Snapshot with Err set).
	C() <-chan Snapshot

	// Stop cancels the stream. Safe to call more than once.
	Stop()
}

// RemoteStore is the authoritative per-user cart document store.
//
// All operations may fail due to connectivity. Failures are reported to the
// caller rather than retried here; retry and fallback policy belong to the
// sync controller.
type RemoteStore interface {
	// Read returns the whole cart document. ok is false when no document
	// exists for the user.
	Read(ctx context.Context, userID string) (Cart, bool, error)

	// ReadItem returns a single line item. ok is false when the document or
	// the line is absent.
	ReadItem(ctx context.Context, userID, productID string) (Line, bool, error)

	// SetItem writes one line at its document path, creating the document
	// when needed.
	SetItem(ctx context.Context, userID, productID string, line Line) error

	// UpdateQuantity point-updates the quantity field of an existing line.
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) error

	// DeleteItem point-deletes one line.
	DeleteItem(ctx context.Context, userID, productID string) error

	// Seed creates an empty cart document for a new user. Idempotent.
	Seed(ctx context.Context, userID string) error

	// Watch opens a snapshot stream for the user's document.
	Watch(ctx context.Context, userID string) (Subscription, error)
}

// LocalStore mirrors the cart on durable device storage, keyed per user so
// switching accounts never leaks another account's cart.
//
// The mirror is best effort: it is never the system of record while the
// remote store is reachable, and callers are expected to log and swallow
// its failures.
type LocalStore interface {
	Read(ctx context.Context, userID string) (Cart, bool, error)
	Write(ctx context.Context, userID string, c Cart) error
}
