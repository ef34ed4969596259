package profile

import (
	"context"
	"errors"
	"sync"

	"example.com/retrowall/internal/gateway"
	"example.com/retrowall/internal/logger"
	"example.com/retrowall/internal/models"
)

var logg = logger.New()

const (
	placeholderBio    = "Welcome to RetroWall! Edit your profile."
	placeholderAvatar = "/default-avatar.png"
)

// Store is the single source of truth for the session's profile. Editors
// and the composer write through it; anything that displays the profile
// subscribes instead of receiving ad-hoc callbacks.
type Store struct {
	mu          sync.Mutex
	records     gateway.Records
	current     models.Profile
	placeholder bool
	subs        []func(models.Profile)
}

// New creates a profile store backed by the given record gateway.
func New(records gateway.Records) *Store {
	return &Store{records: records}
}

// LoadOrPlaceholder resolves the session profile. A missing record is
// recoverable: a temporary profile is synthesized so posting can continue.
// Any other gateway failure is returned to the caller.
func (s *Store) LoadOrPlaceholder(ctx context.Context, id string) error {
	p, err := s.records.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			logg.Warn("profile", "Profile not found, creating a temporary one")
			s.commit(Placeholder(id), true)
			return nil
		}
		logg.Error("profile", "Failed to load profile", err)
		return err
	}
	s.commit(*p, false)
	return nil
}

// Placeholder synthesizes the stand-in profile for an unknown id.
func Placeholder(id string) models.Profile {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return models.Profile{
		ID:        id,
		Username:  "retro_user_" + short,
		AvatarURL: placeholderAvatar,
		Bio:       placeholderBio,
	}
}

// Current returns the committed profile snapshot.
func (s *Store) Current() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsPlaceholder reports whether the current profile was synthesized
// because the record was missing.
func (s *Store) IsPlaceholder() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placeholder
}

// Subscribe registers fn to run after every committed change.
func (s *Store) Subscribe(fn func(models.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SetField commits one already-persisted field value.
func (s *Store) SetField(field, value string) {
	s.mu.Lock()
	p := s.current
	switch field {
	case "username":
		p.Username = value
	case "bio":
		p.Bio = value
	case "avatar_url":
		p.AvatarURL = value
	}
	s.mu.Unlock()
	s.commit(p, false)
}

// AddPosts moves the denormalized post counter by delta.
func (s *Store) AddPosts(delta int) {
	s.mu.Lock()
	p := s.current
	p.PostCount += delta
	ph := s.placeholder
	s.mu.Unlock()
	s.commit(p, ph)
}

func (s *Store) commit(p models.Profile, placeholder bool) {
	s.mu.Lock()
	s.current = p
	s.placeholder = placeholder
	subs := make([]func(models.Profile), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(p)
	}
}
