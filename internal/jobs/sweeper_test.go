package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/calendar"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

type stubBookingRepo struct {
	bookings map[int64]*domain.Booking
}

func (s *stubBookingRepo) Create(_ context.Context, _ int64, _ *domain.BookingRequest) (*domain.Booking, error) {
	return nil, nil
}

func (s *stubBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return s.bookings[id], nil
}

func (s *stubBookingRepo) HasApprovedOverlap(_ context.Context, _ int64, _, _ time.Time, _ int64) (bool, error) {
	return false, nil
}

func (s *stubBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (bool, error) {
	b, ok := s.bookings[id]
	if !ok {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (s *stubBookingRepo) SetApproved(_ context.Context, _ int64, _ int64) (bool, error) {
	return false, nil
}

func (s *stubBookingRepo) SetPayment(_ context.Context, _ int64, _ domain.PaymentStatus, _ domain.PaymentMethod, _ string) (bool, error) {
	return false, nil
}

func (s *stubBookingRepo) SetCalendarRef(_ context.Context, _ int64, _ string) error { return nil }

func (s *stubBookingRepo) ListByUser(_ context.Context, _ int64, _, _ int) ([]domain.Booking, error) {
	return nil, nil
}

func (s *stubBookingRepo) List(_ context.Context, _, _ int) ([]domain.Booking, error) {
	return nil, nil
}

func (s *stubBookingRepo) ListPublicApproved(_ context.Context) ([]domain.PublicBooking, error) {
	return nil, nil
}

func (s *stubBookingRepo) ListStaleUnpaid(_ context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.Status == domain.BookingApproved && b.PaymentStatus == domain.PaymentUnpaid && b.CreatedAt.Before(createdBefore) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingRepo) ListUpcomingPaid(_ context.Context, from, to time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.Status == domain.BookingApproved && b.PaymentStatus == domain.PaymentPaid &&
			!b.StartTime.Before(from) && b.StartTime.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingRepo) PurgeEndedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *stubBookingRepo) Aggregate(_ context.Context, _, _ time.Time, _ int64) (*domain.AnalyticsReport, error) {
	return nil, nil
}

type stubRoomRepo struct{}

func (stubRoomRepo) Create(_ context.Context, _ *domain.CreateRoomRequest) (*domain.Room, error) {
	return nil, nil
}
func (stubRoomRepo) GetByID(_ context.Context, id int64) (*domain.Room, error) {
	return &domain.Room{ID: id, Name: "Hall A"}, nil
}
func (stubRoomRepo) List(_ context.Context) ([]domain.Room, error) { return nil, nil }
func (stubRoomRepo) UpdatePricing(_ context.Context, _ int64, _ int, _ int64) (bool, error) {
	return false, nil
}
func (stubRoomRepo) CreateFeature(_ context.Context, _ *domain.CreateFeatureRequest) (*domain.Feature, error) {
	return nil, nil
}
func (stubRoomRepo) ListFeatures(_ context.Context, _ int64) ([]domain.Feature, error) {
	return nil, nil
}

type stubUserRepo struct{}

func (stubUserRepo) Create(_ context.Context, _ *domain.RegisterRequest, _ string) (*domain.User, error) {
	return nil, nil
}
func (stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return &domain.User{ID: id, Username: "anna", Email: "anna@example.com", Phone: "+491701234567"}, nil
}
func (stubUserRepo) FindByEmail(_ context.Context, _ string) (*domain.User, error) { return nil, nil }
func (stubUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error)       { return nil, nil }
func (stubUserRepo) UpdateRole(_ context.Context, _ int64, _ string) (bool, error) {
	return false, nil
}
func (stubUserRepo) Erase(_ context.Context, _ int64) (bool, error) { return false, nil }

type stubAuditRepo struct {
	entries []string
}

func (s *stubAuditRepo) Append(_ context.Context, entryType, _ string) error {
	s.entries = append(s.entries, entryType)
	return nil
}

func (s *stubAuditRepo) List(_ context.Context, _, _ int) ([]domain.LogEntry, error) {
	return nil, nil
}

type stubCalendar struct {
	removed []string
}

func (s *stubCalendar) Write(_ calendar.Event) (string, error) { return "", nil }
func (s *stubCalendar) Remove(ref string) error {
	s.removed = append(s.removed, ref)
	return nil
}
func (s *stubCalendar) Path(ref string) string { return ref }

type stubPublisher struct {
	subjects []string
}

func (s *stubPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	s.subjects = append(s.subjects, subject)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

func newTestSweeper(bookings *stubBookingRepo, bus *stubPublisher, audit *stubAuditRepo, cal *stubCalendar, now time.Time) *Sweeper {
	s := NewSweeper(bookings, stubRoomRepo{}, stubUserRepo{}, audit, cal, bus, nil, 48*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestAutoCancelRespectsGraceWindow(t *testing.T) {
	createdAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	booking := &domain.Booking{
		ID:               1,
		RoomID:           1,
		UserID:           1,
		Status:           domain.BookingApproved,
		PaymentStatus:    domain.PaymentUnpaid,
		CalendarEventRef: "booking-1",
		CreatedAt:        createdAt,
	}
	bookings := &stubBookingRepo{bookings: map[int64]*domain.Booking{1: booking}}
	bus := &stubPublisher{}
	audit := &stubAuditRepo{}
	cal := &stubCalendar{}

	// 47h after creation: still inside the grace window.
	newTestSweeper(bookings, bus, audit, cal, createdAt.Add(47*time.Hour)).AutoCancel(context.Background())
	if booking.Status != domain.BookingApproved {
		t.Fatalf("expected approved at T+47h, got %s", booking.Status)
	}

	// 49h after creation: past the window, must cancel and notify.
	newTestSweeper(bookings, bus, audit, cal, createdAt.Add(49*time.Hour)).AutoCancel(context.Background())
	if booking.Status != domain.BookingCancelled {
		t.Fatalf("expected cancelled at T+49h, got %s", booking.Status)
	}
	if len(bus.subjects) != 1 {
		t.Errorf("expected one cancellation event, got %v", bus.subjects)
	}
	if len(audit.entries) != 1 || audit.entries[0] != domain.AuditBookingExpired {
		t.Errorf("expected one auto-cancel audit entry, got %v", audit.entries)
	}
	// The cancelled slot must vanish from the public calendar export.
	if len(cal.removed) != 1 || cal.removed[0] != "booking-1" {
		t.Errorf("expected calendar event booking-1 removed, got %v", cal.removed)
	}
}

func TestAutoCancelIgnoresPaid(t *testing.T) {
	createdAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	booking := &domain.Booking{
		ID:            1,
		RoomID:        1,
		UserID:        1,
		Status:        domain.BookingApproved,
		PaymentStatus: domain.PaymentPaid,
		CreatedAt:     createdAt,
	}
	bookings := &stubBookingRepo{bookings: map[int64]*domain.Booking{1: booking}}

	newTestSweeper(bookings, &stubPublisher{}, &stubAuditRepo{}, &stubCalendar{}, createdAt.Add(72*time.Hour)).AutoCancel(context.Background())
	if booking.Status != domain.BookingApproved {
		t.Errorf("paid bookings must never be auto-cancelled, got %s", booking.Status)
	}
}

func TestRemindPicksTheDayAheadWindow(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	inWindow := &domain.Booking{
		ID: 1, RoomID: 1, UserID: 1,
		Status: domain.BookingApproved, PaymentStatus: domain.PaymentPaid,
		StartTime: now.Add(23*time.Hour + 30*time.Minute),
	}
	tooSoon := &domain.Booking{
		ID: 2, RoomID: 1, UserID: 1,
		Status: domain.BookingApproved, PaymentStatus: domain.PaymentPaid,
		StartTime: now.Add(2 * time.Hour),
	}
	unpaid := &domain.Booking{
		ID: 3, RoomID: 1, UserID: 1,
		Status: domain.BookingApproved, PaymentStatus: domain.PaymentUnpaid,
		StartTime: now.Add(23*time.Hour + 30*time.Minute),
	}

	bookings := &stubBookingRepo{bookings: map[int64]*domain.Booking{1: inWindow, 2: tooSoon, 3: unpaid}}
	bus := &stubPublisher{}
	audit := &stubAuditRepo{}

	newTestSweeper(bookings, bus, audit, &stubCalendar{}, now).Remind(context.Background())

	if len(bus.subjects) != 1 {
		t.Fatalf("expected exactly one reminder event, got %v", bus.subjects)
	}
	if len(audit.entries) != 1 || audit.entries[0] != domain.AuditReminderSent {
		t.Errorf("expected one reminder audit entry, got %v", audit.entries)
	}
}
