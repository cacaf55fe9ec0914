// internal/infra/firebase/auth.go
package firebaseinfra

import (
	"context"
	"fmt"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// NewAuthClient initializes the Firebase Auth client used to verify ID
// tokens. When credentialsFile is empty, Application Default Credentials are
// used.
func NewAuthClient(ctx context.Context, projectID, credentialsFile string) (*firebaseauth.Client, error) {
	conf := &firebase.Config{ProjectID: strings.TrimSpace(projectID)}

	var opts []option.ClientOption
	if credentialsFile = strings.TrimSpace(credentialsFile); credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	log.Printf("[firebase] auth client ready (project: %s)", projectID)
	return client, nil
}
