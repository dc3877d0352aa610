package repository

import (
	"context"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository interface {
	Create(ctx context.Context, userID int64, req *domain.CreateReviewRequest) (*domain.Review, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Review, error)
	// Recommend ranks rooms for a user by their historical booking count
	// on the room, tie-broken by the room's overall average rating.
	Recommend(ctx context.Context, userID int64, limit int) ([]domain.Recommendation, error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

func (r *reviewRepository) Create(ctx context.Context, userID int64, req *domain.CreateReviewRequest) (*domain.Review, error) {
	const q = `INSERT INTO reviews (room_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, room_id, user_id, rating, comment, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rv domain.Review
	err := r.pool.QueryRow(ctx, q, req.RoomID, userID, req.Rating, req.Comment).
		Scan(&rv.ID, &rv.RoomID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Review, error) {
	const q = `SELECT rv.id, rv.room_id, rv.user_id, u.username, rv.rating, rv.comment, rv.created_at
		FROM reviews rv JOIN users u ON u.id = rv.user_id
		WHERE rv.room_id=$1
		ORDER BY rv.created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.RoomID, &rv.UserID, &rv.Username, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *reviewRepository) Recommend(ctx context.Context, userID int64, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	// The two LEFT JOINs fan out, repeating each booking row once per
	// review row; the booking count must be over DISTINCT ids.
	const q = `SELECT r.id, r.name,
			count(DISTINCT b.id) FILTER (WHERE b.user_id = $1) AS booking_count,
			coalesce(avg(rv.rating), 0) AS avg_rating
		FROM rooms r
		LEFT JOIN bookings b ON b.room_id = r.id
		LEFT JOIN reviews rv ON rv.room_id = r.id
		GROUP BY r.id, r.name
		ORDER BY booking_count DESC, avg_rating DESC
		LIMIT $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.Recommendation
	for rows.Next() {
		var rec domain.Recommendation
		if err := rows.Scan(&rec.RoomID, &rec.RoomName, &rec.BookingCount, &rec.AvgRating); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
