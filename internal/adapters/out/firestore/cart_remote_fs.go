// internal/adapters/out/firestore/cart_remote_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "shopez/internal/domain/cart"
)

// CartRemoteFS implements cart.RemoteStore using Firestore.
//
// Document design:
// - collection: carts
// - docId: userId (docId is the source of truth)
// - fields: productId -> {quantity, product}
//
// The whole document is the cart. Point writes and deletes address a single
// productId field; the subscription delivers the full current document on
// every change.
type CartRemoteFS struct {
	Client *firestore.Client
}

func NewCartRemoteFS(client *firestore.Client) *CartRemoteFS {
	return &CartRemoteFS{Client: client}
}

func (r *CartRemoteFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

// Read returns (nil, false, nil) if no document exists.
func (r *CartRemoteFS) Read(ctx context.Context, userID string) (cartdom.Cart, bool, error) {
	uid, err := r.checkUID(userID)
	if err != nil {
		return nil, false, err
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return cartFromData(snap.Data()), true, nil
}

func (r *CartRemoteFS) ReadItem(ctx context.Context, userID, productID string) (cartdom.Line, bool, error) {
	uid, err := r.checkUID(userID)
	if err != nil {
		return cartdom.Line{}, false, err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return cartdom.Line{}, false, errors.New("cart_remote_fs: productID is empty")
	}

	c, exists, err := r.Read(ctx, uid)
	if err != nil || !exists {
		return cartdom.Line{}, false, err
	}
	line, ok := c[pid]
	return line, ok, nil
}

// SetItem overwrites one productId field wholesale, creating the document
// when it does not exist yet.
func (r *CartRemoteFS) SetItem(ctx context.Context, userID, productID string, line cartdom.Line) error {
	uid, err := r.checkUID(userID)
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return errors.New("cart_remote_fs: productID is empty")
	}
	if line.Quantity <= 0 {
		return errors.New("cart_remote_fs: SetItem requires quantity >= 1")
	}

	_, err = r.col().Doc(uid).Set(ctx,
		map[string]any{pid: line},
		firestore.Merge(firestore.FieldPath{pid}),
	)
	return err
}

// UpdateQuantity point-updates quantity for an existing line. A missing
// document or line surfaces as an error so the caller can fall back.
func (r *CartRemoteFS) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	uid, err := r.checkUID(userID)
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return errors.New("cart_remote_fs: productID is empty")
	}
	if qty <= 0 {
		return errors.New("cart_remote_fs: UpdateQuantity requires quantity >= 1")
	}

	_, err = r.col().Doc(uid).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{pid, "quantity"}, Value: qty},
	})
	return err
}

// DeleteItem point-deletes one line. Deleting from an absent document is a
// no-op, not an error.
func (r *CartRemoteFS) DeleteItem(ctx context.Context, userID, productID string) error {
	uid, err := r.checkUID(userID)
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return errors.New("cart_remote_fs: productID is empty")
	}

	_, err = r.col().Doc(uid).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{pid}, Value: firestore.Delete},
	})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// Seed creates an empty cart document for a new user. Idempotent: an already
// existing document is left untouched.
func (r *CartRemoteFS) Seed(ctx context.Context, userID string) error {
	uid, err := r.checkUID(userID)
	if err != nil {
		return err
	}

	_, err = r.col().Doc(uid).Create(ctx, map[string]any{})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return err
}

func (r *CartRemoteFS) checkUID(userID string) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("cart_remote_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return "", errors.New("cart_remote_fs: userID is empty")
	}
	return uid, nil
}
