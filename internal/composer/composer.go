package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	appkafka "example.com/retrowall/internal/broker"
	"example.com/retrowall/internal/feed"
	"example.com/retrowall/internal/gateway"
	"example.com/retrowall/internal/logger"
	"example.com/retrowall/internal/models"
	"example.com/retrowall/internal/profile"
)

var logg = logger.New()

const (
	MaxChars  = 280
	MaxImages = 4
)

var (
	// ErrEmptyPost rejects a submission with neither text nor images.
	ErrEmptyPost = &models.ValidationError{Reason: "post cannot be empty"}
	// ErrBodyTooLong rejects a body over the character limit.
	ErrBodyTooLong = &models.ValidationError{Reason: fmt.Sprintf("message exceeds %d characters", MaxChars)}
	// ErrTooManyImages rejects a whole attach batch that would pass the limit.
	ErrTooManyImages = &models.ValidationError{Reason: fmt.Sprintf("you can only upload up to %d images", MaxImages)}
	// ErrSubmitInProgress rejects a re-entrant submit.
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

// File is one selected file handed to AttachImages.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Rejection reports one file of an attach batch that was skipped.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Composer owns the compose-and-submit flow: text input, image
// attachments, validation, upload orchestration and the optimistic feed
// update. On any failure path it leaves its own state untouched so the
// user can retry.
type Composer struct {
	records gateway.Records
	storage gateway.Storage
	feed    *feed.Store
	profile *profile.Store
	events  appkafka.EventWriter // optional, best-effort
	bucket  string

	mu         sync.Mutex
	body       string
	images     []models.PendingImage
	submitting bool
}

// New wires the composer against its collaborators. events may be nil.
func New(records gateway.Records, storage gateway.Storage, feedStore *feed.Store, profileStore *profile.Store, events appkafka.EventWriter, bucket string) *Composer {
	return &Composer{
		records: records,
		storage: storage,
		feed:    feedStore,
		profile: profileStore,
		events:  events,
		bucket:  bucket,
	}
}

// SetBody replaces the draft text.
func (c *Composer) SetBody(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = body
}

// Body returns the draft text.
func (c *Composer) Body() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}

// Images returns a copy of the attached images in selection order.
func (c *Composer) Images() []models.PendingImage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.PendingImage, len(c.images))
	copy(out, c.images)
	return out
}

// Submitting reports whether a submission is outstanding.
func (c *Composer) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// AttachImages adds a batch of selected files. A batch that would exceed
// the image limit is rejected wholesale; otherwise non-image files are
// skipped individually and reported while the rest of the batch proceeds.
func (c *Composer) AttachImages(files []File) ([]Rejection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.images)+len(files) > MaxImages {
		return nil, ErrTooManyImages
	}

	var rejected []Rejection
	for _, f := range files {
		if !models.IsImage(f.ContentType) {
			rejected = append(rejected, Rejection{
				Name:   f.Name,
				Reason: fmt.Sprintf("file %q is not an image", f.Name),
			})
			continue
		}
		c.images = append(c.images, models.NewPendingImage(f.Name, f.ContentType, f.Data))
	}
	return rejected, nil
}

// RemoveImage drops one attachment by position. Nothing was uploaded yet,
// so there is no network effect.
func (c *Composer) RemoveImage(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.images) {
		return fmt.Errorf("no attached image at index %d", index)
	}
	c.images = append(c.images[:index], c.images[index+1:]...)
	return nil
}

// Submit validates the draft, uploads any images concurrently, inserts
// exactly one post record and on success resets the composer, prepends the
// post to the feed with the session profile as author snapshot, and bumps
// the post counter. Any failure leaves the draft exactly as it was.
func (c *Composer) Submit(ctx context.Context) (*models.Post, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	trimmed := strings.TrimSpace(c.body)
	if trimmed == "" && len(c.images) == 0 {
		c.mu.Unlock()
		return nil, ErrEmptyPost
	}
	if utf8.RuneCountInString(trimmed) > MaxChars {
		c.mu.Unlock()
		return nil, ErrBodyTooLong
	}

	c.submitting = true
	images := make([]models.PendingImage, len(c.images))
	copy(images, c.images)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	authorID := c.profile.Current().ID

	urls, err := c.uploadImages(ctx, authorID, images)
	if err != nil {
		return nil, err
	}

	created, err := c.records.InsertPost(ctx, models.NewPost{
		AuthorID:  authorID,
		Body:      trimmed,
		ImageURLs: urls,
	})
	if err != nil {
		if len(urls) > 0 {
			// No rollback: the uploaded objects stay behind as an
			// accepted cost of the failed submission.
			logg.Warn("composer", fmt.Sprintf("Post insert failed, %d uploaded images orphaned", len(urls)))
		}
		logg.Error("composer", "Failed to create post", err)
		return nil, err
	}

	c.mu.Lock()
	c.body = ""
	c.images = nil
	c.mu.Unlock()

	snapshot := c.profile.Current()
	created.Author = &snapshot
	c.feed.Prepend(*created)
	c.profile.AddPosts(1)
	c.publishPostCreated(*created)

	logg.Info("composer", "Post shared successfully")
	return created, nil
}

// uploadImages uploads every attachment concurrently and returns the
// public URLs in selection order, or nil when there is nothing to upload.
// The first failure aborts the logical operation; sibling uploads run to
// completion and their results are discarded.
func (c *Composer) uploadImages(ctx context.Context, authorID string, images []models.PendingImage) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	urls := make([]string, len(images))
	errs := make([]error, len(images))
	var wg sync.WaitGroup

	for i, img := range images {
		wg.Add(1)
		go func(i int, img models.PendingImage) {
			defer wg.Done()
			path := authorID + "/posts/" + gateway.ObjectName(img.Name)
			stored, err := c.storage.Upload(ctx, c.bucket, path, img.ContentType, img.Data)
			if err != nil {
				errs[i] = fmt.Errorf("failed to upload image %s: %w", img.Name, err)
				return
			}
			urls[i] = c.storage.PublicURL(c.bucket, stored)
		}(i, img)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			logg.Error("composer", "Image upload failed, submission aborted", err)
			return nil, err
		}
	}
	return urls, nil
}

// publishPostCreated emits the post-created event when a writer is
// configured. Strictly best-effort: the post already exists and the feed
// was updated, so a broker failure is only logged.
func (c *Composer) publishPostCreated(post models.Post) {
	if c.events == nil {
		return
	}
	msg, err := appkafka.PostCreated(post)
	if err != nil {
		logg.Error("composer", "Failed to encode post-created event", err)
		return
	}
	if err := c.events.WriteMessages(msg); err != nil {
		logg.Error("composer", "Failed to publish post-created event", err)
	}
}
