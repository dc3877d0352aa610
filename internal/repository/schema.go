package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables on process start if they do not exist
// yet. The original deployment model is a single instance owning its
// database, so there is no separate migration tooling.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'citizen',
	phone         TEXT NOT NULL DEFAULT '',
	locale        TEXT NOT NULL DEFAULT 'de',
	consented_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rooms (
	id                BIGSERIAL PRIMARY KEY,
	name              TEXT NOT NULL,
	capacity          INT NOT NULL,
	hourly_rate_cents BIGINT NOT NULL DEFAULT 0,
	lat               DOUBLE PRECISION,
	lng               DOUBLE PRECISION,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS features (
	id          BIGSERIAL PRIMARY KEY,
	room_id     BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	price_cents BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bookings (
	id                 BIGSERIAL PRIMARY KEY,
	room_id            BIGINT NOT NULL REFERENCES rooms(id),
	user_id            BIGINT NOT NULL,
	start_time         TIMESTAMPTZ NOT NULL,
	end_time           TIMESTAMPTZ NOT NULL,
	status             TEXT NOT NULL DEFAULT 'pending',
	payment_status     TEXT NOT NULL DEFAULT 'unpaid',
	payment_method     TEXT NOT NULL DEFAULT '',
	payment_ref        TEXT NOT NULL DEFAULT '',
	feature_ids        BIGINT[] NOT NULL DEFAULT '{}',
	total_cents        BIGINT NOT NULL DEFAULT 0,
	calendar_event_ref TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_bookings_room_status ON bookings (room_id, status);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id);

CREATE TABLE IF NOT EXISTS reviews (
	id         BIGSERIAL PRIMARY KEY,
	room_id    BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	rating     INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_log (
	id         BIGSERIAL PRIMARY KEY,
	type       TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rate_limits (
	key          TEXT PRIMARY KEY,
	count        INT NOT NULL,
	window_start TIMESTAMPTZ NOT NULL,
	expires_at   TIMESTAMPTZ NOT NULL
);
`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, schema)
	return err
}
