package domain

import "time"

const (
	MinRating = 0
	MaxRating = 5
)

type Review struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	User      UserSummary `json:"user"`
	Comment   string      `json:"comment"`
	Rating    int         `json:"rating"`
	CreatedAt time.Time   `json:"createdAt"`
}
