// internal/adapters/out/firestore/profile_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	userdom "shopez/internal/domain/user"
)

// ProfileRepositoryFS writes user profiles.
//
// Document design:
// - collection: users
// - docId: userId
// - field: profile {fullName, email, createdAt}
//
// Written once at account creation; the cart sync engine never reads it.
type ProfileRepositoryFS struct {
	Client *firestore.Client
}

func NewProfileRepositoryFS(client *firestore.Client) *ProfileRepositoryFS {
	return &ProfileRepositoryFS{Client: client}
}

func (r *ProfileRepositoryFS) Save(ctx context.Context, userID string, p userdom.Profile) error {
	if r == nil || r.Client == nil {
		return errors.New("profile_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return errors.New("profile_repository_fs: userID is empty")
	}
	if strings.TrimSpace(p.Email) == "" {
		return errors.New("profile_repository_fs: email is empty")
	}

	_, err := r.Client.Collection("users").Doc(uid).Set(ctx,
		map[string]any{"profile": p},
		firestore.Merge(firestore.FieldPath{"profile"}),
	)
	return err
}
