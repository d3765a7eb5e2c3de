package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Slot rows carry no uniqueness constraint on (doctor_id, date, time);
// duplicate prevention for slots lives in the creation path. Bookings do
// carry one: it is the backstop that makes double-booking impossible even
// if two processes race past the service-level checks.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('doctor', 'patient')),
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);

CREATE TABLE IF NOT EXISTS slots (
	id         UUID PRIMARY KEY,
	doctor_id  UUID NOT NULL REFERENCES users (id),
	date       TEXT NOT NULL,
	time       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS slots_doctor_idx ON slots (doctor_id);

CREATE TABLE IF NOT EXISTS bookings (
	id         UUID PRIMARY KEY,
	doctor_id  UUID NOT NULL REFERENCES users (id),
	patient_id UUID NOT NULL REFERENCES users (id),
	date       TEXT NOT NULL,
	time       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS bookings_tuple_key ON bookings (doctor_id, date, time);
CREATE INDEX IF NOT EXISTS bookings_patient_idx ON bookings (patient_id);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
