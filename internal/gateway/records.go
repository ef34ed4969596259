package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	config "example.com/retrowall/internal/init"
	"example.com/retrowall/internal/models"
)

// pgrstObject asks PostgREST for a single object instead of an array;
// a miss then comes back as 406 instead of an empty list.
const pgrstObject = "application/vnd.pgrst.object+json"

// RecordClient talks to the PostgREST data API backing profiles and posts.
type RecordClient struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	HTTP    *http.Client
}

// NewRecords builds a record client from the loaded config.
func NewRecords() *RecordClient {
	cfg := config.Get()
	return &RecordClient{
		BaseURL: cfg.SupabaseURL,
		APIKey:  cfg.SupabaseAnonKey,
		Timeout: cfg.GatewayTimeout,
		HTTP:    &http.Client{},
	}
}

// GetProfile fetches one profile row. Returns ErrNotFound when the id has
// no matching record.
func (c *RecordClient) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "*")

	var profile models.Profile
	err := c.do(ctx, http.MethodGet, "/rest/v1/profiles?"+q.Encode(), nil, pgrstObject, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListPosts returns all posts, newest first, each joined with its author
// snapshot.
func (c *RecordClient) ListPosts(ctx context.Context) ([]models.Post, error) {
	q := url.Values{}
	q.Set("select", "*,profiles(id,username,avatar_url)")
	q.Set("order", "created_at.desc")

	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/rest/v1/posts?"+q.Encode(), nil, "", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// InsertPost creates exactly one post row and returns it as stored, with
// the server-assigned id and timestamp. A nil ImageURLs slice is serialized
// as JSON null, never as an empty array.
func (c *RecordClient) InsertPost(ctx context.Context, post models.NewPost) (*models.Post, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	var created models.Post
	if err := c.do(ctx, http.MethodPost, "/rest/v1/posts", body, pgrstObject, &created); err != nil {
		return nil, err
	}
	logg.Info("gateway/records", "Post inserted (content anonymized)")
	return &created, nil
}

// UpdateProfile issues a field-scoped patch to one profile row.
func (c *RecordClient) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal profile fields: %w", err)
	}
	return c.do(ctx, http.MethodPatch, "/rest/v1/profiles?"+q.Encode(), body, "", nil)
}

// do runs one request against the data API with the configured per-call
// timeout and decodes a 2xx response into out when out is non-nil.
func (c *RecordClient) do(ctx context.Context, method, path string, body []byte, accept string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNotAcceptable:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: string(msg)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

func (c *RecordClient) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 10 * time.Second
}
