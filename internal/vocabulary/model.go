package vocabulary

import "time"

// Word is a saved vocabulary card in a user's personal collection.
type Word struct {
	ID            int       `json:"id"`
	UserID        int       `json:"userId"`
	Word          string    `json:"word"`
	Translation   string    `json:"translation"`
	Pronunciation *string   `json:"pronunciation"`
	Example       *string   `json:"example"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AddWordRequest struct {
	Word          string  `json:"word"`
	Translation   string  `json:"translation"`
	Pronunciation *string `json:"pronunciation"`
	Example       *string `json:"example"`
}
