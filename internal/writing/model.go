package writing

import "time"

// Writing statuses follow the review workflow: a draft is edited by
// its author, submitted for review, then marked reviewed once an
// admin leaves feedback.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusReviewed  = "reviewed"
)

type Writing struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	PromptID    *int      `json:"promptId"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Translation *string   `json:"translation"`
	Status      string    `json:"status"`
	Feedback    *string   `json:"feedback"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	PromptID    *int    `json:"promptId"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Translation *string `json:"translation"`
	Status      string  `json:"status"`
}

type UpdateRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Translation *string `json:"translation"`
	Status      *string `json:"status"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}
