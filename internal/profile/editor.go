package profile

import (
	"context"
	"errors"
	"strings"
	"sync"

	"example.com/retrowall/internal/gateway"
	"example.com/retrowall/internal/models"
)

// ErrNotEditing is returned when scratch operations run outside an edit.
var ErrNotEditing = errors.New("editor is not in editing state")

// ErrEmptyName rejects saving a blank display name.
var ErrEmptyName = &models.ValidationError{Reason: "name cannot be empty"}

// FieldEditor is the viewing/editing two-state machine behind the name and
// bio fields. Entering an edit copies the committed value into a scratch
// buffer; only a successful save moves the scratch value into the store.
type FieldEditor struct {
	store           *Store
	records         gateway.Records
	field           string
	requireNonEmpty bool

	mu      sync.Mutex
	editing bool
	scratch string
}

// NewNameEditor edits the display name; blank names are rejected on save.
func NewNameEditor(store *Store, records gateway.Records) *FieldEditor {
	return &FieldEditor{store: store, records: records, field: "username", requireNonEmpty: true}
}

// NewBioEditor edits the biography; an empty bio is allowed.
func NewBioEditor(store *Store, records gateway.Records) *FieldEditor {
	return &FieldEditor{store: store, records: records, field: "bio"}
}

// Begin enters editing with the committed value in the scratch buffer.
func (e *FieldEditor) Begin() {
	current := e.store.Current()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = true
	switch e.field {
	case "username":
		e.scratch = current.Username
	case "bio":
		e.scratch = current.Bio
	}
}

// SetScratch mutates the scratch buffer only.
func (e *FieldEditor) SetScratch(v string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return ErrNotEditing
	}
	e.scratch = v
	return nil
}

// Scratch returns the current scratch value.
func (e *FieldEditor) Scratch() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scratch
}

// Editing reports the state machine's position.
func (e *FieldEditor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

// Save validates the scratch value, persists the single field, commits it
// to the store and returns to viewing. On failure the editor stays in
// editing with the scratch buffer intact.
func (e *FieldEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.editing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	value := strings.TrimSpace(e.scratch)
	e.mu.Unlock()

	if e.requireNonEmpty && value == "" {
		return ErrEmptyName
	}

	id := e.store.Current().ID
	if err := e.records.UpdateProfile(ctx, id, map[string]any{e.field: value}); err != nil {
		logg.Error("profile/"+e.field, "Failed to update profile field", err)
		return err
	}

	e.store.SetField(e.field, value)
	e.mu.Lock()
	e.editing = false
	e.scratch = ""
	e.mu.Unlock()
	logg.Info("profile/"+e.field, "Profile field updated")
	return nil
}

// Cancel discards the scratch buffer and returns to viewing. Never makes a
// network call; the committed value was never touched during the edit.
func (e *FieldEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = false
	e.scratch = ""
}

// AvatarEditor replaces the avatar: upload first, and only if the upload
// produced a public URL is the profile row touched.
type AvatarEditor struct {
	store   *Store
	records gateway.Records
	storage gateway.Storage
	bucket  string
}

// NewAvatarEditor builds the avatar replacement flow against the given
// storage bucket.
func NewAvatarEditor(store *Store, records gateway.Records, storage gateway.Storage, bucket string) *AvatarEditor {
	return &AvatarEditor{store: store, records: records, storage: storage, bucket: bucket}
}

// ChangeAvatar uploads the file and persists its public URL as the new
// avatar. Returns the committed URL.
func (e *AvatarEditor) ChangeAvatar(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if !models.IsImage(contentType) {
		return "", &models.ValidationError{Reason: "please upload an image file"}
	}

	id := e.store.Current().ID
	path := id + "/" + gateway.ObjectName(filename)

	stored, err := e.storage.Upload(ctx, e.bucket, path, contentType, data)
	if err != nil {
		logg.Error("profile/avatar", "Failed to upload avatar", err)
		return "", err
	}

	url := e.storage.PublicURL(e.bucket, stored)
	if err := e.records.UpdateProfile(ctx, id, map[string]any{"avatar_url": url}); err != nil {
		logg.Error("profile/avatar", "Failed to save avatar URL", err)
		return "", err
	}

	e.store.SetField("avatar_url", url)
	logg.Info("profile/avatar", "Avatar updated")
	return url, nil
}
