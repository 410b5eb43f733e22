package models

// Review is free text plus a 1..5 rating on one experience.
type Review struct {
	Text    string `json:"text"`
	Rating  int    `json:"rating"`
	EventID int    `json:"event_id,omitempty"`
}

const (
	MinRating = 1
	MaxRating = 5
)
