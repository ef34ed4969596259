package models

import (
	"encoding/base64"
	"strings"
	"time"
)

// Profile is the record behind the sidebar: one profile is "the current
// user" for the whole session.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	PostCount int    `json:"post_count,omitempty"`
}

// Post is immutable once created: no edit or delete in this app.
// ImageURLs is nil when the post carries no images; the record gateway
// serializes nil as JSON null rather than an empty array.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"user_id"`
	Body      string    `json:"body"`
	ImageURLs []string  `json:"image_urls"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Profile  `json:"profiles,omitempty"`
}

// NewPost is the insert payload for the record gateway. The server assigns
// id and created_at.
type NewPost struct {
	AuthorID  string   `json:"user_id"`
	Body      string   `json:"body"`
	ImageURLs []string `json:"image_urls"`
}

// PendingImage is a locally selected, not-yet-uploaded image. It lives only
// between selection and the end of a submission.
type PendingImage struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	PreviewURL  string `json:"preview_url"`
}

// NewPendingImage synthesizes the local preview URI from the file content.
func NewPendingImage(name, contentType string, data []byte) PendingImage {
	return PendingImage{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		PreviewURL:  "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// IsImage reports whether the content type names an image format.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// ValidationError rejects an operation before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
