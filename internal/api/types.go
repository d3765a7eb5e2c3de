package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/scheduling"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role,omitempty"`
}

type CreateSlotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type BookRequest struct {
	SlotID string `json:"slot_id"`
}

type CancelRequest struct {
	BookingID string `json:"booking_id"`
}

type SlotResponse struct {
	ID        uuid.UUID     `json:"id"`
	DoctorID  uuid.UUID     `json:"doctor_id"`
	Date      string        `json:"date"`
	Time      string        `json:"time"`
	CreatedAt time.Time     `json:"created_at"`
	Doctor    *UserResponse `json:"doctor,omitempty"`
}

type BookingResponse struct {
	ID        uuid.UUID     `json:"id"`
	DoctorID  uuid.UUID     `json:"doctor_id"`
	PatientID uuid.UUID     `json:"patient_id"`
	Date      string        `json:"date"`
	Time      string        `json:"time"`
	CreatedAt time.Time     `json:"created_at"`
	Doctor    *UserResponse `json:"doctor,omitempty"`
	Patient   *UserResponse `json:"patient,omitempty"`
}

// MessageResponse is the failure body shape and the body of plain
// confirmations like cancellation.
type MessageResponse struct {
	Message string `json:"message"`
}

func toSlotResponse(s *scheduling.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date,
		Time:      s.Time,
		CreatedAt: s.CreatedAt,
	}
}

func toAvailableSlotResponse(s scheduling.AvailableSlot) SlotResponse {
	resp := toSlotResponse(&s.Slot)
	resp.Doctor = &UserResponse{
		ID:    s.Doctor.ID,
		Name:  s.Doctor.Name,
		Email: s.Doctor.Email,
	}
	return resp
}

func toBookingResponse(b *scheduling.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		DoctorID:  b.DoctorID,
		PatientID: b.PatientID,
		Date:      b.Date,
		Time:      b.Time,
		CreatedAt: b.CreatedAt,
	}
}

func toBookingDetailResponse(d scheduling.BookingDetail) BookingResponse {
	resp := toBookingResponse(&d.Booking)
	if d.Doctor != nil {
		resp.Doctor = &UserResponse{ID: d.Doctor.ID, Name: d.Doctor.Name, Email: d.Doctor.Email}
	}
	if d.Patient != nil {
		resp.Patient = &UserResponse{ID: d.Patient.ID, Name: d.Patient.Name, Email: d.Patient.Email}
	}
	return resp
}
