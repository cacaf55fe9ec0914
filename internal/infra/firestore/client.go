// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// ClientWrapper wraps the Firestore client together with its settings.
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient initializes the Firestore client. When credentialsFile is empty,
// Application Default Credentials are used.
func NewClient(ctx context.Context, projectID string, credentialsFile string) (*ClientWrapper, error) {
	var (
		client *firestore.Client
		err    error
	)
	if credentialsFile != "" {
		client, err = firestore.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	log.Printf("[firestore] connected (project: %s)", projectID)
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Ping tests connectivity. Firestore has no ping API, so a trivial read is
// attempted instead.
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return fmt.Errorf("firestore client is nil")
	}
	if _, err := cw.Client.Collections(ctx).GetAll(); err != nil {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
