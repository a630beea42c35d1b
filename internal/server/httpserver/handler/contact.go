package handler

import (
	"net/http"
	"strconv"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

// contactRequest resolves the caller and, for routes with {id}, the contact id.
func contactRequest(w http.ResponseWriter, r *http.Request, withID bool) (userID, id int64, ok bool) {
	user := UserFromContext(r.Context())
	if user == nil {
		WriteError(w, r, domain.ErrInvalidCredentials)
		return 0, 0, false
	}
	if !withID {
		return user.ID, 0, true
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, domain.ErrBadRequest.WithDetails("contact id must be a positive integer"))
		return 0, 0, false
	}
	return user.ID, id, true
}

// handleListContacts handles GET /contacts.
func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := contactRequest(w, r, false)
	if !ok {
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.contacts.List(r.Context(), userID, page, pageSize)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	items := res.Items
	if items == nil {
		items = []*domain.Contact{}
	}
	WriteJSON(w, r, http.StatusOK, ContactPage{
		Items:    items,
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}

// handleCreateContact handles POST /contacts.
func (h *Handler) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := contactRequest(w, r, false)
	if !ok {
		return
	}
	var req ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	c, err := h.contacts.Create(r.Context(), userID, req.Input())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusCreated, c)
}

// handleSearchContacts handles GET /contacts/search.
func (h *Handler) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := contactRequest(w, r, false)
	if !ok {
		return
	}
	q := r.URL.Query()
	items, err := h.contacts.Search(r.Context(), userID, domain.ContactFilter{
		Name:    q.Get("name"),
		Surname: q.Get("surname"),
		Email:   q.Get("email"),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if items == nil {
		items = []*domain.Contact{}
	}
	WriteJSON(w, r, http.StatusOK, items)
}

// handleBirthdays handles GET /contacts/birthdays.
func (h *Handler) handleBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := contactRequest(w, r, false)
	if !ok {
		return
	}
	days, err := queryInt(r, "days")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	upcoming, err := h.contacts.UpcomingBirthdays(r.Context(), userID, days)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out := make([]BirthdayResponse, 0, len(upcoming))
	for _, u := range upcoming {
		out = append(out, BirthdayResponse{Contact: u.Contact, NextBirthday: u.Date, DaysUntil: u.DaysUntil})
	}
	WriteJSON(w, r, http.StatusOK, out)
}

// handleGetContact handles GET /contacts/{id}.
func (h *Handler) handleGetContact(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := contactRequest(w, r, true)
	if !ok {
		return
	}
	c, err := h.contacts.Get(r.Context(), userID, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, c)
}

// handleUpdateContact handles PUT /contacts/{id}.
func (h *Handler) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := contactRequest(w, r, true)
	if !ok {
		return
	}
	var req ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	c, err := h.contacts.Update(r.Context(), userID, id, req.Input())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, c)
}

// handleDeleteContact handles DELETE /contacts/{id}.
func (h *Handler) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := contactRequest(w, r, true)
	if !ok {
		return
	}
	c, err := h.contacts.Delete(r.Context(), userID, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, c)
}
