package handler

import (
	"mime"
	"net/http"
	"strings"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

// handleSignup handles POST /auth/signup.
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.users.Signup(r.Context(), domain.Signup{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, h.baseURL(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.logger.Info("user signed up", "user_id", user.ID)
	WriteJSON(w, r, http.StatusCreated, user)
}

// handleLogin handles POST /auth/login.
//
// It accepts an OAuth2 password form (username carries the email) or a JSON
// body with email and password.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var email, password string

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(MaxJSONBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			WriteError(w, r, domain.ErrBadRequest.WithDetails("invalid form body"))
			return
		}
		email, password = r.PostFormValue("username"), r.PostFormValue("password")
	default:
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		email, password = req.Email, req.Password
		if email == "" {
			email = req.Username
		}
	}

	if strings.TrimSpace(email) == "" || password == "" {
		WriteError(w, r, domain.ErrBadRequest.WithDetails("email and password are required"))
		return
	}

	pair, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, pair)
}

// handleRefresh handles GET /auth/refresh_token. The refresh token is
// presented as the bearer credential.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	tok := BearerToken(r)
	if tok == "" {
		WriteError(w, r, domain.ErrInvalidCredentials.WithDetails("missing bearer token"))
		return
	}
	pair, err := h.users.Refresh(r.Context(), tok)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, pair)
}

// handleConfirmEmail handles GET /auth/confirmed_email/{token}.
func (h *Handler) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	msg, err := h.users.ConfirmEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}

// handleRequestEmail handles POST /auth/request_email.
func (h *Handler) handleRequestEmail(w http.ResponseWriter, r *http.Request) {
	var req RequestEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		WriteError(w, r, domain.ErrBadRequest.WithDetails("email is required"))
		return
	}

	msg, err := h.users.RequestEmail(r.Context(), req.Email, h.baseURL(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}
