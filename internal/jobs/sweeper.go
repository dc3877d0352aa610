package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/calendar"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/events"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

// Sweeper runs the two scheduled jobs: the daily auto-cancel of
// approved bookings that stayed unpaid past the grace window, and the
// hourly reminder for bookings starting the next day.
type Sweeper struct {
	bookingRepo repository.BookingRepository
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	calendar    calendar.Service
	eventBus    events.Publisher
	redis       *redis.Client
	unpaidAge   time.Duration
	cron        *cron.Cron
	now         func() time.Time
}

func NewSweeper(
	bookingRepo repository.BookingRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	cal calendar.Service,
	eventBus events.Publisher,
	redisClient *redis.Client,
	unpaidAge time.Duration,
) *Sweeper {
	return &Sweeper{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		calendar:    cal,
		eventBus:    eventBus,
		redis:       redisClient,
		unpaidAge:   unpaidAge,
		cron:        cron.New(),
		now:         time.Now,
	}
}

// Start registers the schedules and launches the cron loop.
func (s *Sweeper) Start() error {
	// Auto-cancel once a night, off the busy hours.
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		s.AutoCancel(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule auto-cancel: %w", err)
	}

	if _, err := s.cron.AddFunc("@hourly", func() {
		s.Remind(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	s.cron.Start()
	logger.Info("Scheduled jobs started", "auto_cancel_age", s.unpaidAge.String())
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// AutoCancel cancels approved bookings still unpaid after the grace
// window and tells the citizen.
func (s *Sweeper) AutoCancel(ctx context.Context) {
	cutoff := s.now().Add(-s.unpaidAge)

	stale, err := s.bookingRepo.ListStaleUnpaid(ctx, cutoff)
	if err != nil {
		logger.Error("Auto-cancel sweep failed to list bookings", "error", err)
		return
	}

	for _, b := range stale {
		if _, err := s.bookingRepo.UpdateStatus(ctx, b.ID, domain.BookingCancelled); err != nil {
			logger.Error("Auto-cancel failed", "booking_id", b.ID, "error", err)
			continue
		}

		if b.CalendarEventRef != "" {
			if err := s.calendar.Remove(b.CalendarEventRef); err != nil {
				logger.Error("Failed to remove calendar event", "booking_id", b.ID, "ref", b.CalendarEventRef, "error", err)
			}
		}

		s.notifyCancelled(ctx, &b)

		if err := s.auditRepo.Append(ctx, domain.AuditBookingExpired,
			fmt.Sprintf("booking %d auto-cancelled, unpaid since %s", b.ID, b.CreatedAt.Format(time.RFC3339))); err != nil {
			logger.Error("Failed to append audit entry", "booking_id", b.ID, "error", err)
		}
	}

	if len(stale) > 0 {
		logger.Info("Auto-cancel sweep done", "cancelled", len(stale))
	}
}

func (s *Sweeper) notifyCancelled(ctx context.Context, b *domain.Booking) {
	room, _ := s.roomRepo.GetByID(ctx, b.RoomID)
	user, _ := s.userRepo.FindByID(ctx, b.UserID)
	if room == nil || user == nil {
		return
	}

	event := events.BookingCancelledEvent{
		BookingID: b.ID,
		RoomName:  room.Name,
		Email:     user.Email,
		Reason:    "payment not received in time",
	}
	if err := s.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
		logger.Error("Failed to publish cancellation event", "booking_id", b.ID, "error", err)
	}
}

// Remind notifies owners of paid bookings starting in [now+23h, now+24h).
// A redis marker keeps reruns from double-sending; if redis is down the
// marker is skipped and a duplicate reminder is accepted.
func (s *Sweeper) Remind(ctx context.Context) {
	from := s.now().Add(23 * time.Hour)
	to := s.now().Add(24 * time.Hour)

	upcoming, err := s.bookingRepo.ListUpcomingPaid(ctx, from, to)
	if err != nil {
		logger.Error("Reminder sweep failed to list bookings", "error", err)
		return
	}

	for _, b := range upcoming {
		if !s.claimReminder(ctx, b.ID) {
			continue
		}

		room, _ := s.roomRepo.GetByID(ctx, b.RoomID)
		user, _ := s.userRepo.FindByID(ctx, b.UserID)
		if room == nil || user == nil {
			continue
		}

		event := events.BookingReminderEvent{
			BookingID: b.ID,
			RoomName:  room.Name,
			Email:     user.Email,
			Phone:     user.Phone,
			StartTime: b.StartTime,
		}
		if err := s.eventBus.Publish(ctx, events.BookingReminder, event); err != nil {
			logger.Error("Failed to publish reminder event", "booking_id", b.ID, "error", err)
			continue
		}

		if err := s.auditRepo.Append(ctx, domain.AuditReminderSent,
			fmt.Sprintf("reminder sent for booking %d", b.ID)); err != nil {
			logger.Error("Failed to append audit entry", "booking_id", b.ID, "error", err)
		}
	}
}

// claimReminder marks a booking as reminded via SETNX. Fail-open:
// redis trouble yields true so reminders are never silently lost.
func (s *Sweeper) claimReminder(ctx context.Context, bookingID int64) bool {
	if s.redis == nil {
		return true
	}

	key := fmt.Sprintf("reminder:%d", bookingID)
	ok, err := s.redis.SetNX(ctx, key, 1, 48*time.Hour).Result()
	if err != nil {
		logger.Warn("Reminder dedupe unavailable, sending anyway", "booking_id", bookingID, "error", err)
		return true
	}
	return ok
}
