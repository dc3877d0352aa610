package domain

import "time"

type Room struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Capacity        int       `json:"capacity"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	Lat             *float64  `json:"lat,omitempty"`
	Lng             *float64  `json:"lng,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateRoomRequest struct {
	Name            string   `json:"name"`
	Capacity        int      `json:"capacity"`
	HourlyRateCents int64    `json:"hourly_rate_cents"`
	Lat             *float64 `json:"lat,omitempty"`
	Lng             *float64 `json:"lng,omitempty"`
}

func (r *CreateRoomRequest) Validate() error {
	if r.Name == "" {
		return ValidationError("room name is required")
	}
	if r.Capacity <= 0 {
		return ValidationError("capacity must be positive")
	}
	if r.HourlyRateCents < 0 {
		return ValidationError("hourly rate must not be negative")
	}
	return nil
}

// Feature is a priced add-on owned by a room, selectable per booking.
type Feature struct {
	ID         int64  `json:"id"`
	RoomID     int64  `json:"room_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

type CreateFeatureRequest struct {
	RoomID     int64  `json:"room_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

func (r *CreateFeatureRequest) Validate() error {
	if r.RoomID <= 0 {
		return ValidationError("room_id is required")
	}
	if r.Name == "" {
		return ValidationError("feature name is required")
	}
	if r.PriceCents < 0 {
		return ValidationError("feature price must not be negative")
	}
	return nil
}
