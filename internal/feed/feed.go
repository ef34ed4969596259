package feed

import (
	"context"
	"sync"

	"example.com/retrowall/internal/gateway"
	"example.com/retrowall/internal/logger"
	"example.com/retrowall/internal/models"
)

var logg = logger.New()

// Store holds the wall's ordered post sequence, newest first. It is
// refreshed wholesale by Load and prepended-to on successful submissions;
// a single writer at a time, guarded by the mutex.
type Store struct {
	mu      sync.Mutex
	records gateway.Records
	posts   []models.Post
}

// New creates an empty feed store backed by the given record gateway.
func New(records gateway.Records) *Store {
	return &Store{records: records}
}

// Load replaces the whole sequence with the gateway's current listing.
// On failure the sequence is emptied and the error returned; the caller
// decides how loudly to surface it.
func (s *Store) Load(ctx context.Context) error {
	posts, err := s.records.ListPosts(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		logg.Error("feed", "Failed to load posts", err)
		s.posts = nil
		return err
	}
	s.posts = posts
	logg.Info("feed", "Feed loaded")
	return nil
}

// Prepend inserts at the head regardless of the post's own timestamp.
// No dedup: callers only hand it records they just created.
func (s *Store) Prepend(post models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]models.Post{post}, s.posts...)
}

// Posts returns a copy of the current sequence.
func (s *Store) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Len reports the current sequence length.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}
