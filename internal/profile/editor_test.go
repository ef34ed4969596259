package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"example.com/retrowall/internal/gateway"
	"example.com/retrowall/internal/models"
)

func setupStore(t *testing.T) (*Store, *gateway.MockRecords) {
	t.Helper()
	records := gateway.NewMockRecords()
	records.Profiles["p-1"] = models.Profile{ID: "p-1", Username: "almaz", Bio: "old bio"}

	s := New(records)
	if err := s.LoadOrPlaceholder(context.Background(), "p-1"); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return s, records
}

//
// --- Store ---
//

// missing profile degrades to a placeholder instead of failing
func TestLoadNotFoundPlaceholder(t *testing.T) {
	records := gateway.NewMockRecords()
	s := New(records)

	id := "deadbeef-0000-4000-8000-000000000000"
	if err := s.LoadOrPlaceholder(context.Background(), id); err != nil {
		t.Fatalf("placeholder path must not error: %v", err)
	}
	if !s.IsPlaceholder() {
		t.Fatalf("expected placeholder profile")
	}

	p := s.Current()
	if p.Username != "retro_user_deadbeef" {
		t.Fatalf("placeholder username = %q", p.Username)
	}
	if p.ID != id || p.AvatarURL == "" || p.Bio == "" {
		t.Fatalf("placeholder incomplete: %+v", p)
	}
}

// non-NotFound failures propagate to the caller
func TestLoadGatewayFailurePropagates(t *testing.T) {
	s := New(&gateway.MockRecordsFail{})
	if err := s.LoadOrPlaceholder(context.Background(), "p-1"); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestSubscribersSeeEveryCommit(t *testing.T) {
	s, records := setupStore(t)

	var seen []string
	s.Subscribe(func(p models.Profile) { seen = append(seen, p.Username) })

	editor := NewNameEditor(s, records)
	editor.Begin()
	editor.SetScratch("nur")
	if err := editor.Save(context.Background()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	s.AddPosts(1)

	if len(seen) != 2 || seen[0] != "nur" || seen[1] != "nur" {
		t.Fatalf("unexpected notifications: %v", seen)
	}
	if s.Current().PostCount != 1 {
		t.Fatalf("post count = %d", s.Current().PostCount)
	}
}

//
// --- Field editors ---
//

// save persists the field, commits it and reloading yields the new value
func TestNameSaveRoundTrip(t *testing.T) {
	s, records := setupStore(t)

	editor := NewNameEditor(s, records)
	editor.Begin()
	editor.SetScratch("  nur  ")
	if err := editor.Save(context.Background()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if editor.Editing() {
		t.Fatalf("editor still editing after save")
	}
	if s.Current().Username != "nur" {
		t.Fatalf("store username = %q", s.Current().Username)
	}

	reloaded := New(records)
	if err := reloaded.LoadOrPlaceholder(context.Background(), "p-1"); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Current().Username != "nur" {
		t.Fatalf("reloaded username = %q", reloaded.Current().Username)
	}
}

func TestNameSaveEmptyRejected(t *testing.T) {
	s, records := setupStore(t)

	editor := NewNameEditor(s, records)
	editor.Begin()
	editor.SetScratch("   ")
	err := editor.Save(context.Background())

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(records.Updates) != 0 {
		t.Fatalf("gateway called for rejected save")
	}
	if !editor.Editing() || editor.Scratch() != "   " {
		t.Fatalf("failed save must keep the edit session intact")
	}
}

// empty bio is allowed where empty name is not
func TestBioSaveAllowsEmpty(t *testing.T) {
	s, records := setupStore(t)

	editor := NewBioEditor(s, records)
	editor.Begin()
	editor.SetScratch("")
	if err := editor.Save(context.Background()); err != nil {
		t.Fatalf("empty bio save failed: %v", err)
	}
	if s.Current().Bio != "" {
		t.Fatalf("bio = %q", s.Current().Bio)
	}
}

// cancel restores the pre-edit value exactly, even after several scratch
// mutations, and never touches the network
func TestCancelRestoresValue(t *testing.T) {
	s, records := setupStore(t)

	editor := NewNameEditor(s, records)
	editor.Begin()
	editor.SetScratch("draft one")
	editor.SetScratch("draft two")
	editor.SetScratch("draft three")
	editor.Cancel()

	if editor.Editing() {
		t.Fatalf("editor still editing after cancel")
	}
	if len(records.Updates) != 0 {
		t.Fatalf("cancel issued a network call")
	}
	if s.Current().Username != "almaz" {
		t.Fatalf("committed value changed by cancel: %q", s.Current().Username)
	}
}

func TestSaveFailureKeepsScratch(t *testing.T) {
	s, records := setupStore(t)
	records.FailUpdate = true

	editor := NewNameEditor(s, records)
	editor.Begin()
	editor.SetScratch("nur")
	if err := editor.Save(context.Background()); err == nil {
		t.Fatalf("expected save failure")
	}
	if !editor.Editing() || editor.Scratch() != "nur" {
		t.Fatalf("failed save must keep editing state and scratch")
	}
	if s.Current().Username != "almaz" {
		t.Fatalf("committed value changed by failed save")
	}
}

func TestSetScratchOutsideEdit(t *testing.T) {
	s, records := setupStore(t)
	editor := NewNameEditor(s, records)
	if err := editor.SetScratch("x"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
}

//
// --- Avatar ---
//

func TestChangeAvatar(t *testing.T) {
	s, records := setupStore(t)
	storage := &gateway.MockStorage{}

	editor := NewAvatarEditor(s, records, storage, "avatars")
	url, err := editor.ChangeAvatar(context.Background(), "me.jpg", "image/jpeg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("change avatar failed: %v", err)
	}

	if len(storage.Uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(storage.Uploads))
	}
	up := storage.Uploads[0]
	if up.Bucket != "avatars" || !strings.HasPrefix(up.Path, "p-1/") || !strings.HasSuffix(up.Path, "-me.jpg") {
		t.Fatalf("unexpected upload %+v", up)
	}
	if s.Current().AvatarURL != url {
		t.Fatalf("store avatar url not committed")
	}
	if records.Profiles["p-1"].AvatarURL != url {
		t.Fatalf("avatar url not persisted")
	}
}

func TestChangeAvatarRejectsNonImage(t *testing.T) {
	s, records := setupStore(t)
	storage := &gateway.MockStorage{}

	editor := NewAvatarEditor(s, records, storage, "avatars")
	_, err := editor.ChangeAvatar(context.Background(), "notes.txt", "text/plain", []byte("hi"))

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(storage.Uploads) != 0 || len(records.Updates) != 0 {
		t.Fatalf("gateways called for rejected avatar")
	}
}

// upload failure aborts before the field update
func TestChangeAvatarUploadFailureAborts(t *testing.T) {
	s, records := setupStore(t)

	editor := NewAvatarEditor(s, records, &gateway.MockStorageFail{}, "avatars")
	if _, err := editor.ChangeAvatar(context.Background(), "me.jpg", "image/jpeg", []byte{1}); err == nil {
		t.Fatalf("expected upload failure")
	}
	if len(records.Updates) != 0 {
		t.Fatalf("field update issued after failed upload")
	}
	if s.Current().AvatarURL != "" {
		t.Fatalf("avatar committed despite failed upload")
	}
}
