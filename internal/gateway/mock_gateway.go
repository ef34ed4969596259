package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"example.com/retrowall/internal/models"

	"github.com/google/uuid"
)

// MockRecords simulates the data API for testing.
type MockRecords struct {
	mu         sync.Mutex
	Profiles   map[string]models.Profile
	Posts      []models.Post
	Inserted   []models.NewPost
	Updates    []map[string]any
	FailInsert bool
	FailList   bool
	FailUpdate bool
}

// NewMockRecords initializes a mock record gateway.
func NewMockRecords() *MockRecords {
	return &MockRecords{Profiles: make(map[string]models.Profile)}
}

func (m *MockRecords) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MockRecords) ListPosts(ctx context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailList {
		return nil, errors.New("mock: list posts failed")
	}
	out := make([]models.Post, len(m.Posts))
	copy(out, m.Posts)
	return out, nil
}

func (m *MockRecords) InsertPost(ctx context.Context, post models.NewPost) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailInsert {
		return nil, errors.New("mock: insert post failed")
	}
	m.Inserted = append(m.Inserted, post)
	created := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  post.AuthorID,
		Body:      post.Body,
		ImageURLs: post.ImageURLs,
		CreatedAt: time.Now(),
	}
	m.Posts = append([]models.Post{created}, m.Posts...)
	return &created, nil
}

func (m *MockRecords) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdate {
		return errors.New("mock: update profile failed")
	}
	p, ok := m.Profiles[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		s, _ := v.(string)
		switch k {
		case "username":
			p.Username = s
		case "bio":
			p.Bio = s
		case "avatar_url":
			p.AvatarURL = s
		}
	}
	m.Profiles[id] = p
	m.Updates = append(m.Updates, fields)
	return nil
}

// MockStorage simulates the object store. Safe for the composer's
// concurrent uploads.
type MockStorage struct {
	mu         sync.Mutex
	Uploads    []UploadCall
	ShouldFail bool
	FailOnName string // fail only the upload whose path contains this name
}

type UploadCall struct {
	Bucket      string
	Path        string
	ContentType string
	Size        int
}

func (m *MockStorage) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return "", errors.New("mock: upload failed")
	}
	if m.FailOnName != "" && strings.Contains(path, m.FailOnName) {
		return "", fmt.Errorf("mock: upload of %s failed", path)
	}
	m.Uploads = append(m.Uploads, UploadCall{Bucket: bucket, Path: path, ContentType: contentType, Size: len(data)})
	return path, nil
}

func (m *MockStorage) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}

// ---------------------------------------------
// Fail variants always return errors for negative tests.

type MockRecordsFail struct{}

func (m *MockRecordsFail) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return nil, errors.New("mock records get profile failed")
}

func (m *MockRecordsFail) ListPosts(ctx context.Context) ([]models.Post, error) {
	return nil, errors.New("mock records list posts failed")
}

func (m *MockRecordsFail) InsertPost(ctx context.Context, post models.NewPost) (*models.Post, error) {
	return nil, errors.New("mock records insert post failed")
}

func (m *MockRecordsFail) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	return errors.New("mock records update profile failed")
}

type MockStorageFail struct{}

func (m *MockStorageFail) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	return "", errors.New("mock storage upload failed")
}

func (m *MockStorageFail) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}
