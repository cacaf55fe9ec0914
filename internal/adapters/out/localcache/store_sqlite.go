// internal/adapters/out/localcache/store_sqlite.go
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cartdom "shopez/internal/domain/cart"
)

// ErrCorruptEntry marks a cached document that no longer decodes. Callers
// treat it as "no cached cart" rather than a fatal condition.
var ErrCorruptEntry = errors.New("localcache: corrupt entry")

// StoreSQLite implements cart.LocalStore on the device's sqlite cache.
//
// One row per user under key "cart_<userId>", holding the JSON-serialized
// cart document. The key namespace guarantees that switching accounts never
// reads another account's cart.
type StoreSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewStoreSQLite(db *sql.DB) *StoreSQLite {
	return &StoreSQLite{db: db, now: time.Now}
}

// cacheKey matches the key format of the original device cache.
func cacheKey(userID string) string { return "cart_" + userID }

// Read returns (nil, false, nil) when no entry exists for the user.
func (s *StoreSQLite) Read(ctx context.Context, userID string) (cartdom.Cart, bool, error) {
	uid, err := s.check(userID)
	if err != nil {
		return nil, false, err
	}

	var doc string
	err = s.db.QueryRowContext(ctx,
		`SELECT doc FROM cart_cache WHERE key = ?`, cacheKey(uid),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("localcache: read: %w", err)
	}

	var c cartdom.Cart
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if c == nil {
		c = cartdom.New()
	}
	return c, true, nil
}

// Write overwrites the user's cached cart. A nil cart stores the empty cart.
func (s *StoreSQLite) Write(ctx context.Context, userID string, c cartdom.Cart) error {
	uid, err := s.check(userID)
	if err != nil {
		return err
	}
	if c == nil {
		c = cartdom.New()
	}

	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("localcache: encode: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cart_cache (key, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		cacheKey(uid), string(doc), s.now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("localcache: write: %w", err)
	}
	return nil
}

func (s *StoreSQLite) check(userID string) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("localcache: db is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return "", errors.New("localcache: userID is empty")
	}
	return uid, nil
}
