package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgSlotRepository implements SlotRepository on Postgres.
type PgSlotRepository struct {
	pool *pgxpool.Pool
}

func NewPgSlotRepository(pool *pgxpool.Pool) *PgSlotRepository {
	return &PgSlotRepository{pool: pool}
}

// PgBookingRepository implements BookingRepository on Postgres.
type PgBookingRepository struct {
	pool *pgxpool.Pool
}

func NewPgBookingRepository(pool *pgxpool.Pool) *PgBookingRepository {
	return &PgBookingRepository{pool: pool}
}

// Helpers

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.Time,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.PatientID,
		&b.Date,
		&b.Time,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Slots

func (r *PgSlotRepository) ListWithDoctor(ctx context.Context, doctorFilter *uuid.UUID) ([]AvailableSlot, error) {
	query := `
		SELECT s.id, s.doctor_id, s.date, s.time, s.created_at, u.name, u.email
		FROM slots s
		JOIN users u ON u.id = s.doctor_id
	`
	args := []any{}
	if doctorFilter != nil {
		query += ` WHERE s.doctor_id = $1`
		args = append(args, *doctorFilter)
	}
	query += ` ORDER BY s.date, s.time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailableSlot
	for rows.Next() {
		var as AvailableSlot
		err := rows.Scan(
			&as.ID,
			&as.DoctorID,
			&as.Date,
			&as.Time,
			&as.CreatedAt,
			&as.Doctor.Name,
			&as.Doctor.Email,
		)
		if err != nil {
			return nil, err
		}
		as.Doctor.ID = as.DoctorID
		result = append(result, as)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, time, created_at
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgSlotRepository) GetByTuple(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, time, created_at
		FROM slots
		WHERE doctor_id = $1 AND date = $2 AND time = $3
	`, doctorID, date, timeOfDay)
	return scanSlot(row)
}

func (r *PgSlotRepository) Create(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Slot, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO slots (id, doctor_id, date, time, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, doctor_id, date, time, created_at
	`, id, doctorID, date, timeOfDay)

	return scanSlot(row)
}

// Bookings

func (r *PgBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, date, time, created_at
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgBookingRepository) GetByTuple(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, date, time, created_at
		FROM bookings
		WHERE doctor_id = $1 AND date = $2 AND time = $3
	`, doctorID, date, timeOfDay)
	return scanBooking(row)
}

func (r *PgBookingRepository) GetByTupleForPatient(ctx context.Context, doctorID, patientID uuid.UUID, date, timeOfDay string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, date, time, created_at
		FROM bookings
		WHERE doctor_id = $1 AND patient_id = $2 AND date = $3 AND time = $4
	`, doctorID, patientID, date, timeOfDay)
	return scanBooking(row)
}

func (r *PgBookingRepository) ListForDoctors(ctx context.Context, doctorIDs []uuid.UUID) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, patient_id, date, time, created_at
		FROM bookings
		WHERE doctor_id = ANY($1)
	`, doctorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgBookingRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]BookingDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.doctor_id, b.patient_id, b.date, b.time, b.created_at,
		       u.name, u.email
		FROM bookings b
		JOIN users u ON u.id = b.patient_id
		WHERE b.doctor_id = $1
		ORDER BY b.date, b.time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookingDetails(rows, false)
}

func (r *PgBookingRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]BookingDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.doctor_id, b.patient_id, b.date, b.time, b.created_at,
		       u.name, u.email
		FROM bookings b
		JOIN users u ON u.id = b.doctor_id
		WHERE b.patient_id = $1
		ORDER BY b.date, b.time
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookingDetails(rows, true)
}

// scanBookingDetails reads rows whose trailing columns describe the
// counterpart user: the doctor when counterpartIsDoctor, else the patient.
func scanBookingDetails(rows pgx.Rows, counterpartIsDoctor bool) ([]BookingDetail, error) {
	var result []BookingDetail
	for rows.Next() {
		var d BookingDetail
		var info UserInfo
		err := rows.Scan(
			&d.ID,
			&d.DoctorID,
			&d.PatientID,
			&d.Date,
			&d.Time,
			&d.CreatedAt,
			&info.Name,
			&info.Email,
		)
		if err != nil {
			return nil, err
		}
		if counterpartIsDoctor {
			info.ID = d.DoctorID
			d.Doctor = &info
		} else {
			info.ID = d.PatientID
			d.Patient = &info
		}
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgBookingRepository) Create(ctx context.Context, doctorID, patientID uuid.UUID, date, timeOfDay string) (*Booking, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, doctor_id, patient_id, date, time, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, doctor_id, patient_id, date, time, created_at
	`, id, doctorID, patientID, date, timeOfDay)

	b, err := scanBooking(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateBooking
		}
		return nil, err
	}

	return b, nil
}

func (r *PgBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM bookings
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}
