package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

const recommendationTTL = 15 * time.Minute

type ReviewService interface {
	Create(ctx context.Context, userID int64, req *domain.CreateReviewRequest) (*domain.Review, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Review, error)
	Recommend(ctx context.Context, userID int64) ([]domain.Recommendation, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	roomRepo   repository.RoomRepository
	redis      *redis.Client
}

func NewReviewService(reviewRepo repository.ReviewRepository, roomRepo repository.RoomRepository, redisClient *redis.Client) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		roomRepo:   roomRepo,
		redis:      redisClient,
	}
}

func (s *reviewService) Create(ctx context.Context, userID int64, req *domain.CreateReviewRequest) (*domain.Review, error) {
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

	review, err := s.reviewRepo.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	// New ratings shift the ranking; drop the user's cached list.
	if s.redis != nil {
		if err := s.redis.Del(ctx, recommendKey(userID)).Err(); err != nil {
			logger.WarnContext(ctx, "Failed to invalidate recommendation cache", "user_id", userID, "error", err)
		}
	}
	return review, nil
}

func (s *reviewService) ListByRoom(ctx context.Context, roomID int64) ([]domain.Review, error) {
	return s.reviewRepo.ListByRoom(ctx, roomID)
}

// Recommend serves the per-user ranking from redis when fresh, falling
// back to the database query on a miss or redis trouble.
func (s *reviewService) Recommend(ctx context.Context, userID int64) ([]domain.Recommendation, error) {
	key := recommendKey(userID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var recs []domain.Recommendation
			if err := json.Unmarshal(cached, &recs); err == nil {
				return recs, nil
			}
		}
	}

	recs, err := s.reviewRepo.Recommend(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(recs); err == nil {
			if err := s.redis.Set(ctx, key, payload, recommendationTTL).Err(); err != nil {
				logger.WarnContext(ctx, "Failed to cache recommendations", "user_id", userID, "error", err)
			}
		}
	}
	return recs, nil
}

func recommendKey(userID int64) string {
	return fmt.Sprintf("recommend:%d", userID)
}
