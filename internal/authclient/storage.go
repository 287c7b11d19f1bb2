package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nfrund/opin/internal/domain"
)

type accessTokenKey struct{}

// WithAccessToken attaches the signed-in user's token to ctx so storage calls
// run under that user's row-level policies.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func accessTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}

// Bucket is a domain.AvatarStore backed by one storage bucket.
type Bucket struct {
	client *Client
	name   string
}

// Bucket returns a handle for the named storage bucket.
func (c *Client) Bucket(name string) *Bucket {
	return &Bucket{client: c, name: name}
}

var _ domain.AvatarStore = (*Bucket)(nil)

func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Upload stores r under name, replacing any existing object.
func (b *Bucket) Upload(ctx context.Context, name string, r io.Reader, contentType string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.client.baseURL, url.PathEscape(b.name), escapePath(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, r)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "true")
	b.client.authorize(req, accessTokenFrom(ctx))

	if err := b.client.send(req, nil); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// Remove deletes the object stored under name.
func (b *Bucket) Remove(ctx context.Context, name string) error {
	payload, err := json.Marshal(map[string][]string{"prefixes": {name}})
	if err != nil {
		return fmt.Errorf("failed to marshal remove request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s", b.client.baseURL, url.PathEscape(b.name))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create remove request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	b.client.authorize(req, accessTokenFrom(ctx))

	if err := b.client.send(req, nil); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// PublicURL is the unauthenticated download URL of name.
func (b *Bucket) PublicURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.client.baseURL, url.PathEscape(b.name), escapePath(name))
}
