package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/retrowall/internal/models"
)

func newRecordClient(ts *httptest.Server) *RecordClient {
	return &RecordClient{
		BaseURL: ts.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		HTTP:    ts.Client(),
	}
}

func TestGetProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/profiles" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.p-1" {
			t.Errorf("id filter = %q", got)
		}
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("apikey header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if got := r.Header.Get("Accept"); got != pgrstObject {
			t.Errorf("accept header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"p-1","username":"almaz","bio":"hi"}`)
	}))
	defer ts.Close()

	p, err := newRecordClient(ts).GetProfile(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if p.Username != "almaz" || p.Bio != "hi" {
		t.Fatalf("unexpected profile %+v", p)
	}
}

// PostgREST reports a single-object miss as 406
func TestGetProfileNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"PGRST116"}`, http.StatusNotAcceptable)
	}))
	defer ts.Close()

	_, err := newRecordClient(ts).GetProfile(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProfileServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newRecordClient(ts).GetProfile(context.Background(), "p-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected APIError 500, got %v", err)
	}
}

func TestListPosts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("order"); got != "created_at.desc" {
			t.Errorf("order = %q", got)
		}
		if got := q.Get("select"); !strings.Contains(got, "profiles(") {
			t.Errorf("select misses author join: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id":"2","user_id":"p-1","body":"newer","image_urls":null,"created_at":"2026-08-28T10:00:00Z","profiles":{"id":"p-1","username":"almaz"}},
			{"id":"1","user_id":"p-1","body":"older","image_urls":["https://cdn/a.png"],"created_at":"2026-08-27T10:00:00Z"}
		]`)
	}))
	defer ts.Close()

	posts, err := newRecordClient(ts).ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list posts failed: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "2" {
		t.Fatalf("unexpected posts %+v", posts)
	}
	if posts[0].Author == nil || posts[0].Author.Username != "almaz" {
		t.Fatalf("author join not decoded: %+v", posts[0])
	}
	if posts[0].ImageURLs != nil || len(posts[1].ImageURLs) != 1 {
		t.Fatalf("image urls decoded wrong")
	}
}

func TestInsertPost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("prefer header = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"image_urls":null`) {
			t.Errorf("nil image list must serialize as null: %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"42","user_id":"p-1","body":"hello","image_urls":null,"created_at":"2026-08-28T10:00:00Z"}`)
	}))
	defer ts.Close()

	created, err := newRecordClient(ts).InsertPost(context.Background(), models.NewPost{AuthorID: "p-1", Body: "hello"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if created.ID != "42" || created.Body != "hello" {
		t.Fatalf("unexpected created post %+v", created)
	}
}

func TestUpdateProfile(t *testing.T) {
	var gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "eq.p-1" {
			t.Errorf("id filter = %q", got)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	err := newRecordClient(ts).UpdateProfile(context.Background(), "p-1", map[string]any{"username": "nur"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !strings.Contains(gotBody, `"username":"nur"`) {
		t.Fatalf("patch body = %s", gotBody)
	}
}

func TestUpload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/post-images/p-1/posts/x.png" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-upsert"); got != "false" {
			t.Errorf("x-upsert = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "image/png" {
			t.Errorf("content type = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"Key":"post-images/p-1/posts/x.png"}`)
	}))
	defer ts.Close()

	c := &StorageClient{BaseURL: ts.URL, APIKey: "test-key", Timeout: 2 * time.Second, HTTP: ts.Client()}
	stored, err := c.Upload(context.Background(), "post-images", "p-1/posts/x.png", "image/png", []byte{1, 2})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if stored != "p-1/posts/x.png" {
		t.Fatalf("stored path = %q", stored)
	}
}

// overwrite disabled: a collision comes back as an error, not a clobber
func TestUploadConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Duplicate"}`, http.StatusConflict)
	}))
	defer ts.Close()

	c := &StorageClient{BaseURL: ts.URL, Timeout: 2 * time.Second, HTTP: ts.Client()}
	_, err := c.Upload(context.Background(), "b", "p", "image/png", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("expected APIError 409, got %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	c := &StorageClient{BaseURL: "https://api.test"}
	got := c.PublicURL("avatars", "p-1/me.jpg")
	want := "https://api.test/storage/v1/object/public/avatars/p-1/me.jpg"
	if got != want {
		t.Fatalf("public url = %q, want %q", got, want)
	}
}

func TestObjectName(t *testing.T) {
	name := ObjectName("my photo #1.png")
	if strings.ContainsAny(name, " #%?") {
		t.Fatalf("unsafe characters survived: %q", name)
	}
	if !strings.HasSuffix(name, "-my_photo__1.png") {
		t.Fatalf("filename not preserved: %q", name)
	}
	if name == ObjectName("my photo #1.png") {
		t.Fatalf("object names must not collide")
	}
}
