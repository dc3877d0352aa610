package repository

import (
	"context"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, userID int64, req *domain.BookingRequest) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// HasApprovedOverlap is existence-only: does any approved booking on
	// the room intersect [start, end)? excludeID skips the booking being
	// re-checked at approval time.
	HasApprovedOverlap(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (bool, error)
	SetApproved(ctx context.Context, id int64, totalCents int64) (bool, error)
	SetPayment(ctx context.Context, id int64, status domain.PaymentStatus, method domain.PaymentMethod, ref string) (bool, error)
	SetCalendarRef(ctx context.Context, id int64, ref string) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	List(ctx context.Context, limit, offset int) ([]domain.Booking, error)
	ListPublicApproved(ctx context.Context) ([]domain.PublicBooking, error)
	// ListStaleUnpaid returns approved, unpaid bookings created before the cutoff.
	ListStaleUnpaid(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error)
	// ListUpcomingPaid returns approved, paid bookings starting in [from, to).
	ListUpcomingPaid(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Aggregate(ctx context.Context, from, to time.Time, roomID int64) (*domain.AnalyticsReport, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, room_id, user_id, start_time, end_time,
status, payment_status, payment_method, payment_ref,
feature_ids, total_cents, calendar_event_ref, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime,
		&b.Status, &b.PaymentStatus, &b.PaymentMethod, &b.PaymentRef,
		&b.FeatureIDs, &b.TotalCents, &b.CalendarEventRef, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, userID int64, req *domain.BookingRequest) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		room_id, user_id, start_time, end_time,
		status, payment_status, payment_method, payment_ref,
		feature_ids, total_cents, calendar_event_ref
	) VALUES ($1,$2,$3,$4,'pending','unpaid','','',$5,0,'')
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	featureIDs := req.FeatureIDs
	if featureIDs == nil {
		featureIDs = []int64{}
	}
	return scanBooking(r.pool.QueryRow(ctx, q, req.RoomID, userID, req.StartTime, req.EndTime, featureIDs))
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) HasApprovedOverlap(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE room_id=$1 AND status='approved' AND id != $4
		AND start_time < $3 AND $2 < end_time
	)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, roomID, start, end, excludeID).Scan(&exists)
	return exists, err
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (bool, error) {
	const q = `UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetApproved(ctx context.Context, id int64, totalCents int64) (bool, error) {
	const q = `UPDATE bookings SET status='approved', total_cents=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, totalCents)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetPayment(ctx context.Context, id int64, status domain.PaymentStatus, method domain.PaymentMethod, ref string) (bool, error) {
	const q = `UPDATE bookings SET payment_status=$2, payment_method=$3, payment_ref=$4, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, status, method, ref)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetCalendarRef(ctx context.Context, id int64, ref string) error {
	const q = `UPDATE bookings SET calendar_event_ref=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, ref)
	return err
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE user_id=$1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + bookingCols + ` FROM bookings ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) ListPublicApproved(ctx context.Context) ([]domain.PublicBooking, error) {
	const q = `SELECT b.id, b.room_id, r.name, b.start_time, b.end_time
		FROM bookings b JOIN rooms r ON r.id = b.room_id
		WHERE b.status='approved' AND b.end_time > now()
		ORDER BY b.start_time`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.PublicBooking
	for rows.Next() {
		var b domain.PublicBooking
		if err := rows.Scan(&b.ID, &b.RoomID, &b.RoomName, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ListStaleUnpaid(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE status='approved' AND payment_status='unpaid' AND created_at < $1
		ORDER BY created_at`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) ListUpcomingPaid(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE status='approved' AND payment_status='paid'
		AND start_time >= $1 AND start_time < $2
		ORDER BY start_time`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM bookings WHERE end_time < $1`
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *bookingRepository) Aggregate(ctx context.Context, from, to time.Time, roomID int64) (*domain.AnalyticsReport, error) {
	q := `SELECT r.name,
			count(*),
			coalesce(sum(b.total_cents) FILTER (WHERE b.payment_status='paid'), 0)
		FROM bookings b JOIN rooms r ON r.id = b.room_id
		WHERE b.status='approved' AND b.start_time >= $1 AND b.start_time < $2`
	args := []any{from, to}
	if roomID > 0 {
		q += ` AND b.room_id = $3`
		args = append(args, roomID)
	}
	q += ` GROUP BY r.name`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &domain.AnalyticsReport{BookingsByRoom: map[string]int64{}}
	for rows.Next() {
		var name string
		var count, revenue int64
		if err := rows.Scan(&name, &count, &revenue); err != nil {
			return nil, err
		}
		report.BookingsByRoom[name] = count
		report.BookingCount += count
		report.TotalRevenueCents += revenue
	}
	return report, rows.Err()
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
