package learning

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

func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	contents, err := h.repo.ListContent(r.Context(), r.URL.Query().Get("type"), r.URL.Query().Get("subtype"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(contents)
}

func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	c, err := h.repo.GetContent(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "learning content not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(c)
}

// CreateContent is admin-only (gated by middleware in the router).
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var c Content
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if c.Title == "" || c.Type == "" || len(c.Content) == 0 {
		http.Error(w, "title, type and content are required", http.StatusBadRequest)
		return
	}
	if c.Difficulty == "" {
		c.Difficulty = "beginner"
	}

	created, err := h.repo.CreateContent(r.Context(), &c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	var c Content
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.repo.UpdateContent(r.Context(), id, &c)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "learning content not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	deleted, err := h.repo.DeleteContent(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "learning content not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "learning content deleted"})
}

func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	progress, err := h.repo.ListProgress(r.Context(), sess.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(progress)
}

func (h *Handler) UpsertProgress(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	var req UpsertProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ContentID == 0 {
		http.Error(w, "contentId is required", http.StatusBadRequest)
		return
	}
	if req.CompletionStatus == "" {
		req.CompletionStatus = "in_progress"
	}

	p, err := h.repo.UpsertProgress(r.Context(), sess.UserID, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}
