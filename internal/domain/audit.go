package domain

import "time"

// Audit event types recorded for significant state transitions.
const (
	AuditUserRegistered  = "user.registered"
	AuditUserErased      = "user.erased"
	AuditRoleChanged     = "user.role_changed"
	AuditBookingRequest  = "booking.requested"
	AuditBookingApproved = "booking.approved"
	AuditBookingRejected = "booking.rejected"
	AuditBookingExpired  = "booking.auto_cancelled"
	AuditPaymentReceived = "payment.received"
	AuditPaymentRefunded = "payment.refunded"
	AuditReminderSent    = "booking.reminder_sent"
)

// LogEntry is append-only; there is no update or delete path.
type LogEntry struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalyticsReport aggregates revenue and booking counts for a date range.
type AnalyticsReport struct {
	TotalRevenueCents int64            `json:"total_revenue_cents"`
	BookingCount      int64            `json:"booking_count"`
	BookingsByRoom    map[string]int64 `json:"bookings_by_room"`
}
