package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound     = errors.New("slot not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrDuplicateBooking = errors.New("booking already exists for this slot")
)

// SlotRepository persists offered availability.
type SlotRepository interface {
	// ListWithDoctor returns slots with doctor details resolved,
	// optionally filtered to one doctor.
	ListWithDoctor(ctx context.Context, doctorFilter *uuid.UUID) ([]AvailableSlot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetByTuple(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Slot, error)
	Create(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Slot, error)
}

// BookingRepository persists confirmed reservations.
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByTuple(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Booking, error)
	GetByTupleForPatient(ctx context.Context, doctorID, patientID uuid.UUID, date, timeOfDay string) (*Booking, error)
	// ListForDoctors returns every booking whose doctor is in the given set.
	ListForDoctors(ctx context.Context, doctorIDs []uuid.UUID) ([]Booking, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]BookingDetail, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]BookingDetail, error)
	// Create returns ErrDuplicateBooking when the (doctor, date, time)
	// uniqueness constraint rejects the insert.
	Create(ctx context.Context, doctorID, patientID uuid.UUID, date, timeOfDay string) (*Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
