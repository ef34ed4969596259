package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"example.com/retrowall/internal/composer"
	"example.com/retrowall/internal/gateway"
	"example.com/retrowall/internal/middleware"
	"example.com/retrowall/internal/models"
	"example.com/retrowall/internal/profile"

	"github.com/go-chi/chi/v5"
)

// --- HTTP Handlers ---

// writeJSON encodes a 200 response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps the app's error taxonomy onto status codes: validation
// failures are the caller's fault, gateway failures are upstream's.
func writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Reason, http.StatusBadRequest)
	case errors.Is(err, composer.ErrSubmitInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, gateway.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

// requireSession checks that the resolved session identity matches the
// loaded profile; this is a single-profile surface.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) bool {
	id, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if id != s.profile.Current().ID {
		http.Error(w, "session does not match loaded profile", http.StatusForbidden)
		return false
	}
	return true
}

// getProfileHandler returns the current session profile.
func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.profile.Current())
}

// updateNameHandler runs one edit cycle on the display name.
// Expects JSON body: {"value": "new name"}
func (s *Server) updateNameHandler(w http.ResponseWriter, r *http.Request) {
	s.updateFieldHandler(w, r, s.name, "http/profile/name")
}

// updateBioHandler runs one edit cycle on the biography.
// Expects JSON body: {"value": "new bio"}
func (s *Server) updateBioHandler(w http.ResponseWriter, r *http.Request) {
	s.updateFieldHandler(w, r, s.bio, "http/profile/bio")
}

// updateFieldHandler runs one full edit cycle on a profile field editor:
// begin, set scratch, save. Each request is its own edit session, so a
// failed save is cancelled before reporting.
func (s *Server) updateFieldHandler(w http.ResponseWriter, r *http.Request, editor *profile.FieldEditor, module string) {
	if !s.requireSession(w, r) {
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error(module, "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	editor.Begin()
	if err := editor.SetScratch(body.Value); err != nil {
		writeError(w, err)
		return
	}
	if err := editor.Save(r.Context()); err != nil {
		editor.Cancel()
		writeError(w, err)
		return
	}

	logg.Info(module, "Profile field updated")
	writeJSON(w, s.profile.Current())
}

// updateAvatarHandler replaces the avatar from a multipart upload.
// Expects multipart form field "avatar".
func (s *Server) updateAvatarHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		logg.Error("http/profile/avatar", "Invalid multipart body", err)
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "missing avatar file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read avatar file", http.StatusBadRequest)
		return
	}

	url, err := s.avatar.ChangeAvatar(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}

	logg.Info("http/profile/avatar", "Avatar replaced")
	writeJSON(w, map[string]any{"avatar_url": url})
}

// getFeedHandler returns the wall's current post sequence, newest first.
func (s *Server) getFeedHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.feed.Posts())
}

// reloadFeedHandler refreshes the sequence wholesale from the record
// gateway. A failed reload leaves the feed empty and reports upstream.
func (s *Server) reloadFeedHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	if err := s.feed.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.feed.Posts())
}

// getComposerHandler exposes the draft state: body, attachments, flag.
func (s *Server) getComposerHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"body":       s.composer.Body(),
		"images":     s.composer.Images(),
		"submitting": s.composer.Submitting(),
	})
}

// setBodyHandler replaces the draft text.
// Expects JSON body: {"body": "text"}
func (s *Server) setBodyHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/composer", "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	s.composer.SetBody(body.Body)
	w.WriteHeader(http.StatusOK)
}

// attachImagesHandler attaches a multipart batch of image files.
// Expects multipart form field "images" (repeatable).
func (s *Server) attachImagesHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		logg.Error("http/composer", "Invalid multipart body", err)
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		http.Error(w, "missing image files", http.StatusBadRequest)
		return
	}

	var files []composer.File
	for _, header := range r.MultipartForm.File["images"] {
		f, err := header.Open()
		if err != nil {
			http.Error(w, "failed to read image file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "failed to read image file", http.StatusBadRequest)
			return
		}
		files = append(files, composer.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	rejected, err := s.composer.AttachImages(files)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"attached": len(s.composer.Images()),
		"rejected": rejected,
	})
}

// removeImageHandler drops one attachment by its position.
func (s *Server) removeImageHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid image index", http.StatusBadRequest)
		return
	}
	if err := s.composer.RemoveImage(index); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// submitHandler shares the draft as a new post.
func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	created, err := s.composer.Submit(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	logg.Info("http/composer", "Post created")
	writeJSON(w, created)
}
