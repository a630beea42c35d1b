package handler

import (
	"errors"
	"net/http"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

// avatarFormField is the multipart field carrying the image.
const avatarFormField = "file"

// handleMe handles GET /users/me.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		WriteError(w, r, domain.ErrInvalidCredentials)
		return
	}
	WriteJSON(w, r, http.StatusOK, user)
}

// handleUpdateAvatar handles PATCH /users/avatar.
func (h *Handler) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		WriteError(w, r, domain.ErrInvalidCredentials)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+multipartOverhead)
	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			WriteError(w, r, domain.ErrAvatarTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			WriteError(w, r, domain.ErrBadRequest.WithDetails("multipart field \"file\" is required"))
		default:
			WriteError(w, r, domain.ErrBadRequest.WithDetails("invalid multipart body"))
		}
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	updated, err := h.users.UpdateAvatar(r.Context(), user, header.Header.Get("Content-Type"), file)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, updated)
}
