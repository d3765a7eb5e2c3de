package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Slot is an offered appointment window published by a doctor. Date and time
// are opaque string tokens; the service never parses them, only compares.
type Slot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	Time      string
	CreatedAt time.Time
}

// UserInfo is the public summary of a user attached to slots and bookings.
type UserInfo struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// AvailableSlot is a slot with its doctor's details resolved.
type AvailableSlot struct {
	Slot
	Doctor UserInfo
}

// Booking is a confirmed reservation. It references the slot it fills only
// by the (doctor, date, time) value triple, never by slot id, so availability
// is always recomputed from the two tables rather than stored.
type Booking struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      string
	Time      string
	CreatedAt time.Time
}

// BookingDetail is a booking with the counterpart's details resolved:
// the patient when a doctor lists their bookings, the doctor when a
// patient lists theirs.
type BookingDetail struct {
	Booking
	Doctor  *UserInfo
	Patient *UserInfo
}

func tupleKey(doctorID uuid.UUID, date, timeOfDay string) string {
	return fmt.Sprintf("%s_%s_%s", doctorID, date, timeOfDay)
}
