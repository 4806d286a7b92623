package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRoomNotFound = errors.New("chat room not found")

const (
	DefaultMessageLimit = 50
	recentCacheTTL      = time.Minute
)

// Repository persists rooms and messages in Postgres and keeps a
// cache-aside copy of each room's recent-messages page in Redis.
// cache may be nil (tests), in which case every read hits the DB.
type Repository struct {
	db    *sql.DB
	cache *redis.Client
}

func NewRepository(db *sql.DB, cache *redis.Client) *Repository {
	return &Repository{db: db, cache: cache}
}

func recentKey(roomID, limit int) string {
	return fmt.Sprintf("chat:recent:%d:%d", roomID, limit)
}

// CreateMessage implements MessageStore. The correlation id travels
// back on the returned message but is never written to the database.
func (r *Repository) CreateMessage(ctx context.Context, msg *Message) (*Message, error) {
	query := `INSERT INTO chat_messages (room_id, user_id, type, content)
              VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, msg.RoomID, msg.UserID, msg.Type, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, err
	}

	// A new message makes the cached page stale.
	if r.cache != nil {
		if err := r.cache.Del(ctx, recentKey(msg.RoomID, DefaultMessageLimit)).Err(); err != nil {
			log.Printf("could not invalidate message cache for room %d: %v", msg.RoomID, err)
		}
	}
	return msg, nil
}

// GetRecentMessages returns the most recent limit messages of a room,
// newest first. The default-sized page is served cache-aside.
func (r *Repository) GetRecentMessages(ctx context.Context, roomID, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	useCache := r.cache != nil && limit == DefaultMessageLimit
	if useCache {
		cached, err := r.cache.Get(ctx, recentKey(roomID, limit)).Bytes()
		if err == nil {
			var messages []*Message
			if err := json.Unmarshal(cached, &messages); err == nil {
				return messages, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("message cache read failed for room %d: %v", roomID, err)
		}
	}

	query := `SELECT id, room_id, user_id, type, content, created_at
              FROM chat_messages
              WHERE room_id = $1
              ORDER BY created_at DESC, id DESC
              LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Type, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if useCache {
		if data, err := json.Marshal(messages); err == nil {
			if err := r.cache.Set(ctx, recentKey(roomID, limit), data, recentCacheTTL).Err(); err != nil {
				log.Printf("message cache write failed for room %d: %v", roomID, err)
			}
		}
	}
	return messages, nil
}

const roomColumns = "id, name, description, topic, image_url, created_at"

func scanRoom(row *sql.Row) (*Room, error) {
	room := &Room{}
	err := row.Scan(&room.ID, &room.Name, &room.Description, &room.Topic, &room.ImageURL, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (r *Repository) GetRoom(ctx context.Context, id int) (*Room, error) {
	query := "SELECT " + roomColumns + " FROM chat_rooms WHERE id = $1"
	return scanRoom(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) ListRooms(ctx context.Context) ([]*Room, error) {
	query := "SELECT " + roomColumns + " FROM chat_rooms ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []*Room{}
	for rows.Next() {
		room := &Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Description, &room.Topic, &room.ImageURL, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *Repository) CreateRoom(ctx context.Context, room *Room) (*Room, error) {
	query := `INSERT INTO chat_rooms (name, description, topic, image_url)
              VALUES ($1, $2, $3, $4) RETURNING ` + roomColumns
	return scanRoom(r.db.QueryRowContext(ctx, query, room.Name, room.Description, room.Topic, room.ImageURL))
}

func (r *Repository) UpdateRoom(ctx context.Context, id int, room *Room) (*Room, error) {
	query := `UPDATE chat_rooms SET
                name        = COALESCE(NULLIF($2, ''), name),
                description = COALESCE(NULLIF($3, ''), description),
                topic       = COALESCE($4, topic),
                image_url   = COALESCE($5, image_url)
              WHERE id = $1
              RETURNING ` + roomColumns
	return scanRoom(r.db.QueryRowContext(ctx, query, id, room.Name, room.Description, room.Topic, room.ImageURL))
}
