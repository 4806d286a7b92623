package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hualidepianju/ElderEnglishLearner/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Same-origin frontend in prod sits behind the same host.
	},
}

type Handler struct {
	hub  *Hub
	repo *Repository
}

func NewHandler(hub *Hub, repo *Repository) *Handler {
	return &Handler{hub: hub, repo: repo}
}

// ServeWs upgrades the connection and registers it with the hub. It
// runs behind the session middleware; the session's user id is pinned
// to the connection so frames cannot impersonate other users.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := NewClient(h.hub, conn, sess.UserID)
	h.hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.repo.ListRooms(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(rooms)
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	room, err := h.repo.GetRoom(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			http.Error(w, "chat room not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(room)
}

// GetMessages returns the most recent messages of a room, newest
// first. Clients reverse the page for chronological display.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	limit := DefaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}

	messages, err := h.repo.GetRecentMessages(r.Context(), id, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(messages)
}

// CreateRoom and UpdateRoom are admin-only (gated in the router).
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var room Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if room.Name == "" || room.Description == "" {
		http.Error(w, "name and description are required", http.StatusBadRequest)
		return
	}

	created, err := h.repo.CreateRoom(r.Context(), &room)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	var room Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.repo.UpdateRoom(r.Context(), id, &room)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			http.Error(w, "chat room not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(updated)
}
