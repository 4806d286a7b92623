package writing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hualidepianju/ElderEnglishLearner/internal/middleware"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// loadOwned fetches the writing and enforces the access rule: the
// author always passes, admins pass when adminOK is true.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request, adminOK bool) (*Writing, *middleware.Session, bool) {
	sess, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return nil, nil, false
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid writing id", http.StatusBadRequest)
		return nil, nil, false
	}

	wr, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "writing not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, nil, false
	}

	if wr.UserID != sess.UserID && !(adminOK && sess.IsAdmin) {
		http.Error(w, "no permission", http.StatusForbidden)
		return nil, nil, false
	}
	return wr, sess, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	writings, err := h.repo.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(writings)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	wr, _, ok := h.loadOwned(w, r, true)
	if !ok {
		return
	}
	json.NewEncoder(w).Encode(wr)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" {
		http.Error(w, "title and content are required", http.StatusBadRequest)
		return
	}

	wr, err := h.repo.Create(r.Context(), sess.UserID, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wr)
}

// Update is author-only; admins edit through the feedback endpoint.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	wr, _, ok := h.loadOwned(w, r, false)
	if !ok {
		return
	}

	var upd UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.repo.Update(r.Context(), wr.ID, &upd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	wr, _, ok := h.loadOwned(w, r, true)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(r.Context(), wr.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "writing deleted", "success": deleted})
}

// Feedback handles POST /api/admin/writings/{id}/feedback (admin gate
// is mounted in the router).
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid writing id", http.StatusBadRequest)
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wr, err := h.repo.SetFeedback(r.Context(), id, req.Feedback)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "writing not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(wr)
}
