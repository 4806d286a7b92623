package learning

import (
	"encoding/json"
	"time"
)

// Content is one learning unit. The content column is free-form JSON
// whose shape depends on the type (dialogues for "oral", word lists
// for "vocabulary", paragraphs for "article", prompts for "writing").
type Content struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Subtype     *string         `json:"subtype"`
	Content     json.RawMessage `json:"content"`
	Difficulty  string          `json:"difficulty"`
	Duration    *int            `json:"duration"`
	ImageURL    *string         `json:"imageUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Progress struct {
	ID               int       `json:"id"`
	UserID           int       `json:"userId"`
	ContentID        int       `json:"contentId"`
	CompletionStatus string    `json:"completionStatus"`
	Progress         int       `json:"progress"`
	LastAccessed     time.Time `json:"lastAccessed"`
}

type UpsertProgressRequest struct {
	ContentID        int    `json:"contentId"`
	CompletionStatus string `json:"completionStatus"`
	Progress         int    `json:"progress"`
}
