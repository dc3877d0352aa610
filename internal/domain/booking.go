package domain

import (
	"math"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingApproved, BookingRejected, BookingCancelled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// PaymentStatus is tracked orthogonally to BookingStatus: approved+unpaid
// is the expected state right after approval.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodNone         PaymentMethod = ""
	MethodCard         PaymentMethod = "card"
	MethodWallet       PaymentMethod = "wallet"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case MethodCard, MethodWallet, MethodBankTransfer:
		return PaymentMethod(s), true
	default:
		return MethodNone, false
	}
}

// Booking covers the half-open interval [StartTime, EndTime) on a room.
type Booking struct {
	ID               int64         `json:"id"`
	RoomID           int64         `json:"room_id"`
	UserID           int64         `json:"user_id"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Status           BookingStatus `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentMethod    PaymentMethod `json:"payment_method,omitempty"`
	PaymentRef       string        `json:"-"`
	FeatureIDs       []int64       `json:"feature_ids"`
	TotalCents       int64         `json:"total_cents"`
	CalendarEventRef string        `json:"calendar_event_ref,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Overlaps reports whether [b.StartTime, b.EndTime) intersects
// [start, end). Touching endpoints do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

type BookingRequest struct {
	RoomID     int64     `json:"room_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	FeatureIDs []int64   `json:"feature_ids"`
}

func (r *BookingRequest) Validate() error {
	if r.RoomID <= 0 {
		return ValidationError("room_id is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return ValidationError("start_time and end_time are required")
	}
	if !r.StartTime.Before(r.EndTime) {
		return ValidationError("start_time must be before end_time")
	}
	return nil
}

// ComputeTotal prices a booking: fractional hours times the room's hourly
// rate, plus the flat price of every selected feature still in the
// catalog. Selected ids no longer present are dropped without error.
func ComputeTotal(start, end time.Time, room *Room, catalog []Feature, selected []int64) int64 {
	hours := end.Sub(start).Hours()
	total := int64(math.Round(hours * float64(room.HourlyRateCents)))

	byID := make(map[int64]Feature, len(catalog))
	for _, f := range catalog {
		byID[f.ID] = f
	}
	for _, id := range selected {
		if f, ok := byID[id]; ok {
			total += f.PriceCents
		}
	}
	return total
}

// PublicBooking is the unauthenticated calendar view: approved slots
// joined with the room name, nothing else.
type PublicBooking struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	RoomName  string    `json:"room_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
