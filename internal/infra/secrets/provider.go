// internal/infra/secrets/provider.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// Provider resolves secret values from Google Secret Manager.
type Provider struct {
	sm        *secretmanager.Client
	projectID string
}

func NewProvider(ctx context.Context, projectID string, opts ...option.ClientOption) (*Provider, error) {
	prj := strings.TrimSpace(projectID)
	if prj == "" {
		return nil, errors.New("secrets: projectID is empty")
	}

	sm, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: client init failed: %w", err)
	}
	return &Provider{sm: sm, projectID: prj}, nil
}

// Resolve returns the payload of a secret version. name may be a bare secret
// id, resolved as projects/<projectID>/secrets/<name>/versions/latest, or a
// full resource name.
func (p *Provider) Resolve(ctx context.Context, name string) (string, error) {
	if p == nil || p.sm == nil {
		return "", errors.New("secrets: provider is not configured")
	}
	id := strings.TrimSpace(name)
	if id == "" {
		return "", errors.New("secrets: secret name is empty")
	}

	if !strings.HasPrefix(id, "projects/") {
		id = "projects/" + p.projectID + "/secrets/" + id + "/versions/latest"
	}

	resp, err := p.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: id})
	if err != nil {
		return "", fmt.Errorf("secrets: AccessSecretVersion failed (%s): %w", id, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secrets: empty payload (%s)", id)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

func (p *Provider) Close() error {
	if p == nil || p.sm == nil {
		return nil
	}
	return p.sm.Close()
}
