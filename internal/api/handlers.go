package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/scheduling"
)

func createSlotHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Could not parse request body")
			return
		}

		if req.Date == "" || req.Time == "" {
			writeError(w, http.StatusBadRequest, "Date and time are required")
			return
		}

		id, _ := IdentityFrom(r.Context())

		slot, err := svc.CreateSlot(r.Context(), id.UserID, req.Date, req.Time)
		if err != nil {
			if errors.Is(err, scheduling.ErrSlotExists) {
				writeError(w, http.StatusConflict, "Slot already exists")
				return
			}
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSlotResponse(slot))
	}
}

func availableSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doctorFilter *uuid.UUID
		if raw := r.URL.Query().Get("doctorId"); raw != "" {
			doctorID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "doctorId must be a valid UUID")
				return
			}
			doctorFilter = &doctorID
		}

		available, err := svc.ListAvailable(r.Context(), doctorFilter)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		resp := make([]SlotResponse, 0, len(available))
		for _, s := range available {
			resp = append(resp, toAvailableSlotResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Could not parse request body")
			return
		}

		if req.SlotID == "" {
			writeError(w, http.StatusBadRequest, "slot_id is required")
			return
		}

		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "slot_id must be a valid UUID")
			return
		}

		id, _ := IdentityFrom(r.Context())

		booking, err := svc.Book(r.Context(), slotID, id.UserID)
		if err != nil {
			handleBookError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(booking))
	}
}

func handleBookError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "Slot not found")
	case errors.Is(err, scheduling.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, "You already booked this slot")
	case errors.Is(err, scheduling.ErrSlotTaken):
		writeError(w, http.StatusConflict, "Slot already booked")
	case errors.Is(err, scheduling.ErrSlotBusy):
		writeError(w, http.StatusConflict, "Slot is currently being booked, please retry")
	default:
		writeInternalError(w, r, err)
	}
}

func cancelHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Could not parse request body")
			return
		}

		if req.BookingID == "" {
			writeError(w, http.StatusBadRequest, "booking_id is required")
			return
		}

		bookingID, err := uuid.Parse(req.BookingID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "booking_id must be a valid UUID")
			return
		}

		id, _ := IdentityFrom(r.Context())

		if err := svc.Cancel(r.Context(), bookingID, id.UserID); err != nil {
			switch {
			case errors.Is(err, scheduling.ErrBookingNotFound):
				writeError(w, http.StatusNotFound, "Booking not found")
			case errors.Is(err, scheduling.ErrNotParticipant):
				writeError(w, http.StatusForbidden, "Not authorized to cancel")
			default:
				writeInternalError(w, r, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking cancelled"})
	}
}

func doctorBookingsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		bookings, err := svc.ListDoctorBookings(r.Context(), id.UserID)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingDetailResponses(bookings))
	}
}

func patientBookingsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		bookings, err := svc.ListPatientBookings(r.Context(), id.UserID)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingDetailResponses(bookings))
	}
}

func toBookingDetailResponses(details []scheduling.BookingDetail) []BookingResponse {
	resp := make([]BookingResponse, 0, len(details))
	for _, d := range details {
		resp = append(resp, toBookingDetailResponse(d))
	}
	return resp
}
