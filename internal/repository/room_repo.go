package repository

import (
	"context"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository interface {
	Create(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error)
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	UpdatePricing(ctx context.Context, id int64, capacity int, hourlyRateCents int64) (bool, error)
	CreateFeature(ctx context.Context, req *domain.CreateFeatureRequest) (*domain.Feature, error)
	ListFeatures(ctx context.Context, roomID int64) ([]domain.Feature, error)
}

type roomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &roomRepository{pool: pool}
}

const roomCols = `id, name, capacity, hourly_rate_cents, lat, lng, created_at`

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var rm domain.Room
	err := row.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.HourlyRateCents, &rm.Lat, &rm.Lng, &rm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *roomRepository) Create(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error) {
	const q = `INSERT INTO rooms (name, capacity, hourly_rate_cents, lat, lng)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + roomCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanRoom(r.pool.QueryRow(ctx, q, req.Name, req.Capacity, req.HourlyRateCents, req.Lat, req.Lng))
}

func (r *roomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rm, err := scanRoom(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rm, err
}

func (r *roomRepository) List(ctx context.Context) ([]domain.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms ORDER BY name`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *rm)
	}
	return rooms, rows.Err()
}

func (r *roomRepository) UpdatePricing(ctx context.Context, id int64, capacity int, hourlyRateCents int64) (bool, error) {
	const q = `UPDATE rooms SET capacity=$2, hourly_rate_cents=$3 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, capacity, hourlyRateCents)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *roomRepository) CreateFeature(ctx context.Context, req *domain.CreateFeatureRequest) (*domain.Feature, error) {
	const q = `INSERT INTO features (room_id, name, price_cents)
		VALUES ($1, $2, $3)
		RETURNING id, room_id, name, price_cents`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var f domain.Feature
	err := r.pool.QueryRow(ctx, q, req.RoomID, req.Name, req.PriceCents).
		Scan(&f.ID, &f.RoomID, &f.Name, &f.PriceCents)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *roomRepository) ListFeatures(ctx context.Context, roomID int64) ([]domain.Feature, error) {
	const q = `SELECT id, room_id, name, price_cents FROM features WHERE room_id=$1 ORDER BY name`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var features []domain.Feature
	for rows.Next() {
		var f domain.Feature
		if err := rows.Scan(&f.ID, &f.RoomID, &f.Name, &f.PriceCents); err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}
