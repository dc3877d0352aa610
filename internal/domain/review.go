package domain

import (
	"strings"
	"time"
)

const MaxCommentLength = 1000

type Review struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateReviewRequest struct {
	RoomID  int64  `json:"room_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (r *CreateReviewRequest) Validate() error {
	if r.RoomID <= 0 {
		return ValidationError("room_id is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return ValidationError("rating must be between 1 and 5")
	}
	if len(strings.TrimSpace(r.Comment)) > MaxCommentLength {
		return ValidationError("comment must not exceed %d characters", MaxCommentLength)
	}
	return nil
}

// Recommendation ranks a room for a user by how often they booked it and
// how well it is rated overall.
type Recommendation struct {
	RoomID       int64   `json:"room_id"`
	RoomName     string  `json:"room_name"`
	BookingCount int64   `json:"booking_count"`
	AvgRating    float64 `json:"avg_rating"`
}
