package gateway

import (
	"context"
	"errors"
	"fmt"

	"example.com/retrowall/internal/logger"
	"example.com/retrowall/internal/models"
)

var logg = logger.New()

// ErrNotFound is returned when a record lookup matches no row.
var ErrNotFound = errors.New("record not found")

// APIError carries a non-2xx gateway response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.Status, e.Message)
}

// --- Interfaces ---

// Records is the structured-data side of the backend: profiles and posts.
type Records interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	InsertPost(ctx context.Context, post models.NewPost) (*models.Post, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]any) error
}

// Storage is the binary-object side: uploads and public URL resolution.
type Storage interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)
	PublicURL(bucket, path string) string
}
