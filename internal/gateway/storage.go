package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	config "example.com/retrowall/internal/init"
)

// StorageClient talks to the object-storage API backing avatars and post
// images.
type StorageClient struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	HTTP    *http.Client
}

// NewStorage builds a storage client from the loaded config.
func NewStorage() *StorageClient {
	cfg := config.Get()
	return &StorageClient{
		BaseURL: cfg.SupabaseURL,
		APIKey:  cfg.SupabaseAnonKey,
		Timeout: cfg.GatewayTimeout,
		HTTP:    &http.Client{},
	}
}

// Upload stores one object and returns its path within the bucket.
// Overwrite is disabled: colliding paths fail rather than clobber.
func (c *StorageClient) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.BaseURL + "/storage/v1/object/" + bucket + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Status: resp.StatusCode, Message: string(msg)}
	}

	// The API echoes the stored key as "<bucket>/<path>".
	var stored struct {
		Key string `json:"Key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stored); err == nil && stored.Key != "" {
		return strings.TrimPrefix(stored.Key, bucket+"/"), nil
	}
	return path, nil
}

// PublicURL resolves the publicly reachable URL of a stored object.
func (c *StorageClient) PublicURL(bucket, path string) string {
	return c.BaseURL + "/storage/v1/object/public/" + bucket + "/" + path
}

// ObjectName builds a collision-free object name for an uploaded file,
// keeping the original filename visible in the path.
func ObjectName(filename string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '?', '#', '%':
			return '_'
		}
		return r
	}, filename)
	return uuid.NewString() + "-" + clean
}
