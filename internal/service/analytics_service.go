package service

import (
	"context"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
)

type AnalyticsService interface {
	// Report aggregates approved bookings starting in [from, to).
	// roomID 0 means all rooms. Revenue counts paid bookings only.
	Report(ctx context.Context, from, to time.Time, roomID int64) (*domain.AnalyticsReport, error)
}

type analyticsService struct {
	bookingRepo repository.BookingRepository
}

func NewAnalyticsService(bookingRepo repository.BookingRepository) AnalyticsService {
	return &analyticsService{bookingRepo: bookingRepo}
}

func (s *analyticsService) Report(ctx context.Context, from, to time.Time, roomID int64) (*domain.AnalyticsReport, error) {
	if !from.Before(to) {
		return nil, domain.ValidationError("startDate must be before endDate")
	}
	return s.bookingRepo.Aggregate(ctx, from, to, roomID)
}
