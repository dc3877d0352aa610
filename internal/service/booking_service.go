package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/calendar"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/invoice"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/payments"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/config"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/events"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

// ApproveResult carries the fresh payment handles back to the manager
// who approved, together with warnings for side effects that failed.
type ApproveResult struct {
	Booking        *domain.Booking   `json:"booking"`
	TotalCents     int64             `json:"total_cents"`
	PaymentHandles []payments.Handle `json:"payment_handles"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// DashboardEntry is a booking joined with its room and owner for the
// admin view.
type DashboardEntry struct {
	Booking  domain.Booking `json:"booking"`
	RoomName string         `json:"room_name"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
}

type BookingService interface {
	Request(ctx context.Context, userID int64, req *domain.BookingRequest) (*domain.Booking, error)
	Approve(ctx context.Context, id int64) (*ApproveResult, error)
	Reject(ctx context.Context, id int64) error
	Refund(ctx context.Context, id int64) error
	// Reconcile marks a booking paid or refunded from a verified
	// provider callback. Unknown correlation ids are logged and
	// dropped so the provider does not keep retrying.
	Reconcile(ctx context.Context, notice *payments.WebhookNotice, method domain.PaymentMethod) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListMine(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	ListPublic(ctx context.Context) ([]domain.PublicBooking, error)
	Dashboard(ctx context.Context, limit, offset int) ([]DashboardEntry, error)
	// InvoicePath resolves the invoice artifact for download, guarding
	// ownership for non-admin callers.
	InvoicePath(ctx context.Context, bookingID, callerID int64, callerRole string) (string, error)
	// PurgeOld enforces the retention policy at startup.
	PurgeOld(ctx context.Context, retention time.Duration)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	providers   map[domain.PaymentMethod]payments.Provider
	bank        *payments.BankTransferProvider
	calendar    calendar.Service
	invoices    invoice.Service
	eventBus    events.Publisher
	config      *config.Config
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	providers map[domain.PaymentMethod]payments.Provider,
	bank *payments.BankTransferProvider,
	cal calendar.Service,
	invoices invoice.Service,
	eventBus events.Publisher,
	config *config.Config,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		providers:   providers,
		bank:        bank,
		calendar:    cal,
		invoices:    invoices,
		eventBus:    eventBus,
		config:      config,
	}
}

func (s *bookingService) Request(ctx context.Context, userID int64, req *domain.BookingRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	room, err := s.roomRepo.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.NotFoundError("room %d not found", req.RoomID)
	}

	// Only approved bookings block a slot; pending requests may pile up
	// on the same interval and compete for approval.
	taken, err := s.bookingRepo.HasApprovedOverlap(ctx, req.RoomID, req.StartTime, req.EndTime, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ConflictError("room %s is already booked in that time range", room.Name)
	}

	booking, err := s.bookingRepo.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		logger.ErrorContext(ctx, "Failed to load requester for notification", "user_id", userID, "error", err)
	} else {
		s.publish(ctx, events.BookingRequested, events.BookingRequestedEvent{
			BookingID: booking.ID,
			RoomName:  room.Name,
			Username:  user.Username,
			StartTime: booking.StartTime,
			EndTime:   booking.EndTime,
		})
	}

	s.audit(ctx, domain.AuditBookingRequest, fmt.Sprintf("booking %d requested for room %d by user %d", booking.ID, req.RoomID, userID))
	return booking, nil
}

func (s *bookingService) Approve(ctx context.Context, id int64) (*ApproveResult, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.NotFoundError("booking %d not found", id)
	}
	if booking.Status == domain.BookingRejected || booking.Status == domain.BookingCancelled {
		return nil, domain.InvalidStateError("booking %d is %s and cannot be approved", id, booking.Status)
	}

	// Re-check at approval time: two pending requests on the same slot
	// both pass the request-time check, only the first approval wins.
	taken, err := s.bookingRepo.HasApprovedOverlap(ctx, booking.RoomID, booking.StartTime, booking.EndTime, booking.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ConflictError("an approved booking already covers that time range")
	}

	room, err := s.roomRepo.GetByID(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.NotFoundError("room %d not found", booking.RoomID)
	}

	catalog, err := s.roomRepo.ListFeatures(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}

	total := domain.ComputeTotal(booking.StartTime, booking.EndTime, room, catalog, booking.FeatureIDs)

	if _, err := s.bookingRepo.SetApproved(ctx, id, total); err != nil {
		return nil, err
	}
	booking.Status = domain.BookingApproved
	booking.TotalCents = total

	// The transition is committed. Everything below is a side effect:
	// each one fails independently without rolling the approval back.
	result := &ApproveResult{Booking: booking, TotalCents: total}

	correlation := strconv.FormatInt(id, 10)
	description := fmt.Sprintf("Booking #%d %s", id, room.Name)
	for method, provider := range s.providers {
		handle, err := provider.CreateIntent(ctx, total, description, correlation)
		if err != nil {
			logger.ErrorContext(ctx, "Payment intent failed", "method", method, "booking_id", id, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s payment unavailable", method))
			continue
		}
		result.PaymentHandles = append(result.PaymentHandles, *handle)
	}

	if ref, err := s.calendar.Write(calendar.Event{
		BookingID: id,
		RoomName:  room.Name,
		Start:     booking.StartTime,
		End:       booking.EndTime,
	}); err != nil {
		logger.ErrorContext(ctx, "Calendar event failed", "booking_id", id, "error", err)
		result.Warnings = append(result.Warnings, "calendar event not created")
	} else {
		booking.CalendarEventRef = ref
		if err := s.bookingRepo.SetCalendarRef(ctx, id, ref); err != nil {
			logger.ErrorContext(ctx, "Failed to store calendar ref", "booking_id", id, "error", err)
		}
	}

	user, err := s.userRepo.FindByID(ctx, booking.UserID)
	if err != nil || user == nil {
		logger.ErrorContext(ctx, "Failed to load booking owner", "user_id", booking.UserID, "error", err)
		user = &domain.User{}
	}

	if err := s.writeInvoice(booking, room, catalog, user); err != nil {
		logger.ErrorContext(ctx, "Invoice generation failed", "booking_id", id, "error", err)
		result.Warnings = append(result.Warnings, "invoice not generated")
	}

	if user.Email != "" {
		links := make([]events.PaymentLink, 0, len(result.PaymentHandles))
		for _, h := range result.PaymentHandles {
			links = append(links, events.PaymentLink{Method: string(h.Method), URL: h.URL, Ref: h.Reference})
		}
		s.publish(ctx, events.BookingApproved, events.BookingApprovedEvent{
			BookingID:   id,
			RoomName:    room.Name,
			Email:       user.Email,
			Phone:       user.Phone,
			StartTime:   booking.StartTime,
			EndTime:     booking.EndTime,
			TotalCents:  total,
			PaymentURLs: links,
		})
	}

	s.audit(ctx, domain.AuditBookingApproved, fmt.Sprintf("booking %d approved, total %d cents", id, total))
	return result, nil
}

// writeInvoice renders the PDF artifact. Re-approval overwrites the
// previous file.
func (s *bookingService) writeInvoice(booking *domain.Booking, room *domain.Room, catalog []domain.Feature, user *domain.User) error {
	hours := booking.EndTime.Sub(booking.StartTime).Hours()
	lines := []invoice.Line{{
		Description: fmt.Sprintf("%s, %.2f hours", room.Name, hours),
		AmountCents: booking.TotalCents,
	}}

	byID := make(map[int64]domain.Feature, len(catalog))
	for _, f := range catalog {
		byID[f.ID] = f
	}
	var featureSum int64
	for _, fid := range booking.FeatureIDs {
		if f, ok := byID[fid]; ok {
			lines = append(lines, invoice.Line{Description: f.Name, AmountCents: f.PriceCents})
			featureSum += f.PriceCents
		}
	}
	lines[0].AmountCents = booking.TotalCents - featureSum

	correlation := strconv.FormatInt(booking.ID, 10)
	inv := invoice.Invoice{
		BookingID:   booking.ID,
		IssuedTo:    user.Username,
		RoomName:    room.Name,
		Start:       booking.StartTime,
		End:         booking.EndTime,
		Lines:       lines,
		TotalCents:  booking.TotalCents,
		Beneficiary: s.config.Bank.Beneficiary,
		IBAN:        s.config.Bank.IBAN,
		BIC:         s.config.Bank.BIC,
		PurposeLine: s.bank.PurposeLine(correlation),
	}
	if png, err := s.bank.QRCode(booking.TotalCents, correlation); err == nil {
		inv.QRCodePNG = png
	}

	_, err := s.invoices.Generate(inv)
	return err
}

func (s *bookingService) Reject(ctx context.Context, id int64) error {
	updated, err := s.bookingRepo.UpdateStatus(ctx, id, domain.BookingRejected)
	if err != nil {
		return err
	}
	if !updated {
		return domain.NotFoundError("booking %d not found", id)
	}

	if booking, err := s.bookingRepo.GetByID(ctx, id); err == nil && booking != nil {
		// A previously approved booking left an .ics file behind; the
		// public export must stop showing the slot.
		if booking.CalendarEventRef != "" {
			if err := s.calendar.Remove(booking.CalendarEventRef); err != nil {
				logger.ErrorContext(ctx, "Failed to remove calendar event", "booking_id", id, "ref", booking.CalendarEventRef, "error", err)
			}
		}

		room, _ := s.roomRepo.GetByID(ctx, booking.RoomID)
		user, _ := s.userRepo.FindByID(ctx, booking.UserID)
		if room != nil && user != nil {
			s.publish(ctx, events.BookingRejected, events.BookingRejectedEvent{
				BookingID: id,
				RoomName:  room.Name,
				Email:     user.Email,
			})
		}
	}

	s.audit(ctx, domain.AuditBookingRejected, fmt.Sprintf("booking %d rejected", id))
	return nil
}

func (s *bookingService) Refund(ctx context.Context, id int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return domain.NotFoundError("booking %d not found", id)
	}
	if booking.PaymentStatus != domain.PaymentPaid {
		return domain.InvalidStateError("booking %d is %s, only paid bookings can be refunded", id, booking.PaymentStatus)
	}

	provider, ok := s.providers[booking.PaymentMethod]
	if !ok {
		return domain.NotImplementedError("no refund support for method %q", booking.PaymentMethod)
	}

	if err := provider.Refund(ctx, booking.PaymentRef, booking.TotalCents); err != nil {
		return err
	}

	if _, err := s.bookingRepo.SetPayment(ctx, id, domain.PaymentRefunded, booking.PaymentMethod, booking.PaymentRef); err != nil {
		return err
	}

	if user, err := s.userRepo.FindByID(ctx, booking.UserID); err == nil && user != nil {
		s.publish(ctx, events.PaymentRefunded, events.PaymentRefundedEvent{
			BookingID:  id,
			Method:     string(booking.PaymentMethod),
			Email:      user.Email,
			TotalCents: booking.TotalCents,
		})
	}

	s.audit(ctx, domain.AuditPaymentRefunded, fmt.Sprintf("booking %d refunded %d cents via %s", id, booking.TotalCents, booking.PaymentMethod))
	return nil
}

func (s *bookingService) Reconcile(ctx context.Context, notice *payments.WebhookNotice, method domain.PaymentMethod) error {
	id, err := strconv.ParseInt(notice.CorrelationID, 10, 64)
	if err != nil {
		logger.WarnContext(ctx, "Webhook with malformed correlation id", "correlation_id", notice.CorrelationID)
		return nil
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking == nil {
		// Ack unknown ids so the provider stops retrying.
		logger.WarnContext(ctx, "Webhook for unknown booking", "booking_id", id, "reference", notice.Reference)
		return nil
	}

	status := domain.PaymentPaid
	auditType := domain.AuditPaymentReceived
	if notice.Refunded {
		status = domain.PaymentRefunded
		auditType = domain.AuditPaymentRefunded
	}

	if _, err := s.bookingRepo.SetPayment(ctx, id, status, method, notice.Reference); err != nil {
		return err
	}

	if !notice.Refunded {
		if user, err := s.userRepo.FindByID(ctx, booking.UserID); err == nil && user != nil {
			s.publish(ctx, events.PaymentReceived, events.PaymentReceivedEvent{
				BookingID: id,
				Method:    string(method),
				Email:     user.Email,
			})
		}
	}

	s.audit(ctx, auditType, fmt.Sprintf("booking %d payment %s via %s (ref %s)", id, status, method, notice.Reference))
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.NotFoundError("booking %d not found", id)
	}
	return booking, nil
}

func (s *bookingService) ListMine(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	return s.bookingRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *bookingService) ListPublic(ctx context.Context) ([]domain.PublicBooking, error) {
	return s.bookingRepo.ListPublicApproved(ctx)
}

func (s *bookingService) Dashboard(ctx context.Context, limit, offset int) ([]DashboardEntry, error) {
	bookings, err := s.bookingRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	rooms := map[int64]string{}
	entries := make([]DashboardEntry, 0, len(bookings))
	for _, b := range bookings {
		entry := DashboardEntry{Booking: b}

		name, ok := rooms[b.RoomID]
		if !ok {
			if room, err := s.roomRepo.GetByID(ctx, b.RoomID); err == nil && room != nil {
				name = room.Name
			}
			rooms[b.RoomID] = name
		}
		entry.RoomName = name

		if user, err := s.userRepo.FindByID(ctx, b.UserID); err == nil && user != nil {
			entry.Username = user.Username
			entry.Email = user.Email
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *bookingService) InvoicePath(ctx context.Context, bookingID, callerID int64, callerRole string) (string, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking == nil {
		return "", domain.NotFoundError("booking %d not found", bookingID)
	}
	if booking.UserID != callerID && callerRole != domain.RoleAdmin && callerRole != domain.RoleManager {
		return "", domain.ForbiddenError("not your booking")
	}
	return s.invoices.Path(bookingID), nil
}

func (s *bookingService) publish(ctx context.Context, subject string, data any) {
	if err := s.eventBus.Publish(ctx, subject, data); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

func (s *bookingService) audit(ctx context.Context, entryType, message string) {
	if err := s.auditRepo.Append(ctx, entryType, message); err != nil {
		logger.ErrorContext(ctx, "Failed to append audit entry", "type", entryType, "error", err)
	}
}

// PurgeOld deletes bookings that ended more than the retention window
// ago. Runs once at process start.
func (s *bookingService) PurgeOld(ctx context.Context, retention time.Duration) {
	n, err := s.bookingRepo.PurgeEndedBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		logger.Error("Retention purge failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("Retention purge removed old bookings", "count", n)
	}
}
