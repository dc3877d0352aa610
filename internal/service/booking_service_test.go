package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/calendar"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/invoice"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/payments"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/service"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/config"
)

// ---------- Mocks ----------

type mockBookingRepo struct {
	bookings map[int64]*domain.Booking
	nextID   int64
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[int64]*domain.Booking), nextID: 1}
}

func (m *mockBookingRepo) Create(_ context.Context, userID int64, req *domain.BookingRequest) (*domain.Booking, error) {
	b := &domain.Booking{
		ID:            m.nextID,
		RoomID:        req.RoomID,
		UserID:        userID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
		FeatureIDs:    req.FeatureIDs,
		CreatedAt:     time.Now(),
	}
	m.bookings[b.ID] = b
	m.nextID++
	return b, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookingRepo) HasApprovedOverlap(_ context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error) {
	for _, b := range m.bookings {
		if b.RoomID != roomID || b.ID == excludeID || b.Status != domain.BookingApproved {
			continue
		}
		if b.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (bool, error) {
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (m *mockBookingRepo) SetApproved(_ context.Context, id int64, totalCents int64) (bool, error) {
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	b.Status = domain.BookingApproved
	b.TotalCents = totalCents
	return true, nil
}

func (m *mockBookingRepo) SetPayment(_ context.Context, id int64, status domain.PaymentStatus, method domain.PaymentMethod, ref string) (bool, error) {
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	b.PaymentStatus = status
	b.PaymentMethod = method
	b.PaymentRef = ref
	return true, nil
}

func (m *mockBookingRepo) SetCalendarRef(_ context.Context, id int64, ref string) error {
	if b, ok := m.bookings[id]; ok {
		b.CalendarEventRef = ref
	}
	return nil
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID int64, _, _ int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) List(_ context.Context, _, _ int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBookingRepo) ListPublicApproved(_ context.Context) ([]domain.PublicBooking, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListStaleUnpaid(_ context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.Status == domain.BookingApproved && b.PaymentStatus == domain.PaymentUnpaid && b.CreatedAt.Before(createdBefore) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListUpcomingPaid(_ context.Context, from, to time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.Status == domain.BookingApproved && b.PaymentStatus == domain.PaymentPaid &&
			!b.StartTime.Before(from) && b.StartTime.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) PurgeEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, b := range m.bookings {
		if b.EndTime.Before(cutoff) {
			delete(m.bookings, id)
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) Aggregate(_ context.Context, from, to time.Time, roomID int64) (*domain.AnalyticsReport, error) {
	report := &domain.AnalyticsReport{BookingsByRoom: map[string]int64{}}
	for _, b := range m.bookings {
		if b.Status != domain.BookingApproved || b.StartTime.Before(from) || !b.StartTime.Before(to) {
			continue
		}
		if roomID > 0 && b.RoomID != roomID {
			continue
		}
		report.BookingCount++
		if b.PaymentStatus == domain.PaymentPaid {
			report.TotalRevenueCents += b.TotalCents
		}
	}
	return report, nil
}

type mockRoomRepo struct {
	rooms    map[int64]*domain.Room
	features map[int64][]domain.Feature
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[int64]*domain.Room), features: make(map[int64][]domain.Feature)}
}

func (m *mockRoomRepo) Create(_ context.Context, req *domain.CreateRoomRequest) (*domain.Room, error) {
	id := int64(len(m.rooms) + 1)
	room := &domain.Room{ID: id, Name: req.Name, Capacity: req.Capacity, HourlyRateCents: req.HourlyRateCents}
	m.rooms[id] = room
	return room, nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id int64) (*domain.Room, error) {
	return m.rooms[id], nil
}

func (m *mockRoomRepo) List(_ context.Context) ([]domain.Room, error) {
	var out []domain.Room
	for _, r := range m.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRoomRepo) UpdatePricing(_ context.Context, id int64, capacity int, rate int64) (bool, error) {
	r, ok := m.rooms[id]
	if !ok {
		return false, nil
	}
	r.Capacity = capacity
	r.HourlyRateCents = rate
	return true, nil
}

func (m *mockRoomRepo) CreateFeature(_ context.Context, req *domain.CreateFeatureRequest) (*domain.Feature, error) {
	f := domain.Feature{ID: int64(len(m.features[req.RoomID]) + 1), RoomID: req.RoomID, Name: req.Name, PriceCents: req.PriceCents}
	m.features[req.RoomID] = append(m.features[req.RoomID], f)
	return &f, nil
}

func (m *mockRoomRepo) ListFeatures(_ context.Context, roomID int64) ([]domain.Feature, error) {
	return m.features[roomID], nil
}

type mockUserRepo struct {
	users map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, hash string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == req.Email || u.Username == req.Username {
			return nil, domain.ConflictError("username or email already registered")
		}
	}
	u := &domain.User{
		ID:           int64(len(m.users) + 1),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
		Phone:        req.Phone,
		Locale:       req.Locale,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id int64, role string) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.Role = role
	return true, nil
}

func (m *mockUserRepo) Erase(_ context.Context, id int64) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

type mockAuditRepo struct {
	entries []domain.LogEntry
}

func (m *mockAuditRepo) Append(_ context.Context, entryType, message string) error {
	m.entries = append(m.entries, domain.LogEntry{Type: entryType, Message: message})
	return nil
}

func (m *mockAuditRepo) List(_ context.Context, _, _ int) ([]domain.LogEntry, error) {
	return m.entries, nil
}

type mockPublisher struct {
	published []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.published = append(m.published, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockProvider struct {
	handle    payments.Handle
	refunded  []string
	refundErr error
}

func (m *mockProvider) CreateIntent(_ context.Context, _ int64, _, correlationID string) (*payments.Handle, error) {
	h := m.handle
	if h.Reference == "" {
		h.Reference = "ref-" + correlationID
	}
	return &h, nil
}

func (m *mockProvider) Refund(_ context.Context, reference string, _ int64) error {
	if m.refundErr != nil {
		return m.refundErr
	}
	m.refunded = append(m.refunded, reference)
	return nil
}

type mockCalendar struct {
	written []calendar.Event
	removed []string
}

func (m *mockCalendar) Write(ev calendar.Event) (string, error) {
	m.written = append(m.written, ev)
	return fmt.Sprintf("booking-%d", ev.BookingID), nil
}

func (m *mockCalendar) Remove(ref string) error {
	m.removed = append(m.removed, ref)
	return nil
}
func (m *mockCalendar) Path(ref string) string {
	return "/tmp/" + ref + ".ics"
}

type mockInvoices struct {
	generated []invoice.Invoice
}

func (m *mockInvoices) Generate(inv invoice.Invoice) (string, error) {
	m.generated = append(m.generated, inv)
	return "/tmp/invoice.pdf", nil
}

func (m *mockInvoices) Path(id int64) string { return "/tmp/invoice.pdf" }

// ---------- Fixtures ----------

type fixture struct {
	bookings *mockBookingRepo
	rooms    *mockRoomRepo
	users    *mockUserRepo
	audit    *mockAuditRepo
	bus      *mockPublisher
	card     *mockProvider
	cal      *mockCalendar
	svc      service.BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		bookings: newMockBookingRepo(),
		rooms:    newMockRoomRepo(),
		users:    newMockUserRepo(),
		audit:    &mockAuditRepo{},
		bus:      &mockPublisher{},
		card:     &mockProvider{handle: payments.Handle{Method: domain.MethodCard}},
		cal:      &mockCalendar{},
	}

	bank := payments.NewBankTransferProvider("Stadtkasse", "DE02120300000000202051", "BYLADEM1001")
	providers := map[domain.PaymentMethod]payments.Provider{
		domain.MethodCard:         f.card,
		domain.MethodBankTransfer: bank,
	}

	f.users.users[1] = &domain.User{ID: 1, Username: "anna", Email: "anna@example.com", Role: domain.RoleCitizen}

	f.svc = service.NewBookingService(
		f.bookings, f.rooms, f.users, f.audit,
		providers, bank, f.cal, &mockInvoices{},
		f.bus, config.Load(),
	)
	return f
}

func (f *fixture) addRoom(name string, rateCents int64) *domain.Room {
	room := &domain.Room{ID: int64(len(f.rooms.rooms) + 1), Name: name, Capacity: 50, HourlyRateCents: rateCents}
	f.rooms.rooms[room.ID] = room
	return room
}

func at(hour int) time.Time {
	return time.Date(2026, 9, 14, hour, 0, 0, 0, time.UTC)
}

// ---------- Tests ----------

func TestHallAScenario(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	first, err := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	if err != nil {
		t.Fatalf("request 09-11: %v", err)
	}
	if first.Status != domain.BookingPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}

	result, err := f.svc.Approve(ctx, first.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.TotalCents != 4000 {
		t.Errorf("expected total 4000 cents for 2h at 2000/h, got %d", result.TotalCents)
	}
	if len(result.PaymentHandles) == 0 {
		t.Error("expected payment handles after approval")
	}

	// Overlapping interval against the approved slot must conflict.
	_, err = f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(10), EndTime: at(12)})
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("expected conflict for 10-12, got %v", err)
	}

	// Back-to-back is fine: end == start does not overlap.
	next, err := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(11), EndTime: at(13)})
	if err != nil {
		t.Fatalf("request 11-13: %v", err)
	}
	if next.Status != domain.BookingPending {
		t.Errorf("expected pending, got %s", next.Status)
	}
}

func TestRequestOverlapIgnoresNonApproved(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	pending, err := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := f.svc.Reject(ctx, pending.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Same interval against only a rejected booking must not conflict.
	if _, err := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)}); err != nil {
		t.Errorf("expected success against rejected booking, got %v", err)
	}
}

func TestApproveReChecksOverlap(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	// Both requests pass the request-time check while nothing is approved.
	first, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	second, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(10), EndTime: at(12)})

	if _, err := f.svc.Approve(ctx, first.ID); err != nil {
		t.Fatalf("approve first: %v", err)
	}

	_, err := f.svc.Approve(ctx, second.ID)
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("expected conflict approving overlapping pending booking, got %v", err)
	}

	got, _ := f.bookings.GetByID(ctx, second.ID)
	if got.Status != domain.BookingPending {
		t.Errorf("losing booking must stay pending, got %s", got.Status)
	}
}

func TestApprovePricingSkipsDeletedFeature(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	f.rooms.features[hallA.ID] = []domain.Feature{{ID: 1, RoomID: hallA.ID, Name: "Floodlights", PriceCents: 500}}
	ctx := context.Background()

	// Feature id 99 was deleted from the catalog after the request.
	b, err := f.svc.Request(ctx, 1, &domain.BookingRequest{
		RoomID: hallA.ID, StartTime: at(9), EndTime: at(11), FeatureIDs: []int64{1, 99},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	result, err := f.svc.Approve(ctx, b.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.TotalCents != 4500 {
		t.Errorf("expected 4000 + 500 with deleted feature skipped, got %d", result.TotalCents)
	}
}

func TestRefundRequiresPaid(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	if _, err := f.svc.Approve(ctx, b.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	err := f.svc.Refund(ctx, b.ID)
	if domain.KindOf(err) != domain.KindInvalidState {
		t.Errorf("expected invalid state refunding unpaid booking, got %v", err)
	}

	f.bookings.SetPayment(ctx, b.ID, domain.PaymentPaid, domain.MethodCard, "pi_123")
	if err := f.svc.Refund(ctx, b.ID); err != nil {
		t.Fatalf("refund paid booking: %v", err)
	}

	got, _ := f.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentRefunded {
		t.Errorf("expected refunded, got %s", got.PaymentStatus)
	}
	if len(f.card.refunded) != 1 || f.card.refunded[0] != "pi_123" {
		t.Errorf("expected provider refund for pi_123, got %v", f.card.refunded)
	}
}

func TestRefundBankTransferNotImplemented(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	f.svc.Approve(ctx, b.ID)
	f.bookings.SetPayment(ctx, b.ID, domain.PaymentPaid, domain.MethodBankTransfer, "SPORT-1")

	err := f.svc.Refund(ctx, b.ID)
	if domain.KindOf(err) != domain.KindNotImplemented {
		t.Errorf("expected not implemented for bank transfer refund, got %v", err)
	}

	got, _ := f.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPaid {
		t.Errorf("failed refund must not change payment status, got %s", got.PaymentStatus)
	}
}

func TestReconcileMarksPaid(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	f.svc.Approve(ctx, b.ID)

	notice := &payments.WebhookNotice{CorrelationID: "1", Reference: "pi_abc", AmountCents: 4000}
	if err := f.svc.Reconcile(ctx, notice, domain.MethodCard); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got, _ := f.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPaid || got.PaymentMethod != domain.MethodCard || got.PaymentRef != "pi_abc" {
		t.Errorf("unexpected booking after reconcile: %+v", got)
	}
}

func TestReconcileUnknownBookingIsAcked(t *testing.T) {
	f := newFixture(t)

	notice := &payments.WebhookNotice{CorrelationID: "999", Reference: "pi_zzz"}
	if err := f.svc.Reconcile(context.Background(), notice, domain.MethodCard); err != nil {
		t.Errorf("unknown booking must be acked without error, got %v", err)
	}
}

func TestRejectIsTerminalForApprove(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	if err := f.svc.Reject(ctx, b.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err := f.svc.Approve(ctx, b.ID)
	if domain.KindOf(err) != domain.KindInvalidState {
		t.Errorf("expected invalid state approving rejected booking, got %v", err)
	}
}

func TestRejectRemovesCalendarEvent(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	if _, err := f.svc.Approve(ctx, b.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(f.cal.written) != 1 {
		t.Fatalf("expected one calendar event after approval, got %d", len(f.cal.written))
	}

	if err := f.svc.Reject(ctx, b.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	want := fmt.Sprintf("booking-%d", b.ID)
	if len(f.cal.removed) != 1 || f.cal.removed[0] != want {
		t.Errorf("expected calendar event %s removed on rejection, got %v", want, f.cal.removed)
	}
}

func TestRejectWithoutCalendarEvent(t *testing.T) {
	f := newFixture(t)
	hallA := f.addRoom("Hall A", 2000)
	ctx := context.Background()

	// Never approved, so no calendar event exists to remove.
	b, _ := f.svc.Request(ctx, 1, &domain.BookingRequest{RoomID: hallA.ID, StartTime: at(9), EndTime: at(11)})
	if err := f.svc.Reject(ctx, b.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(f.cal.removed) != 0 {
		t.Errorf("expected no calendar removal for never-approved booking, got %v", f.cal.removed)
	}
}

func TestApproveUnknownBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), 42)
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}
