package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	redisclient "github.com/careslot/careslot/internal/redis"
)

var (
	ErrSlotExists     = errors.New("slot already exists")
	ErrAlreadyBooked  = errors.New("you already booked this slot")
	ErrSlotTaken      = errors.New("slot already booked")
	ErrSlotBusy       = errors.New("slot is currently being booked, please retry")
	ErrNotParticipant = errors.New("not authorized to cancel")
)

type Service struct {
	slots    SlotRepository
	bookings BookingRepository
	cache    AvailabilityCache
	locker   redisclient.Locker
}

func NewService(slots SlotRepository, bookings BookingRepository, cache AvailabilityCache, locker redisclient.Locker) *Service {
	return &Service{
		slots:    slots,
		bookings: bookings,
		cache:    cache,
		locker:   locker,
	}
}

// ListAvailable returns the slots that are offered but not booked, optionally
// filtered to one doctor. Availability is derived, never stored: a slot is
// excluded iff some booking matches its (doctor, date, time) triple,
// regardless of which patient holds it. Results are cached per filter until
// the next availability-changing write.
func (s *Service) ListAvailable(ctx context.Context, doctorFilter *uuid.UUID) ([]AvailableSlot, error) {
	key := CacheKey(doctorFilter)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	slots, err := s.slots.ListWithDoctor(ctx, doctorFilter)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	var doctorIDs []uuid.UUID
	if doctorFilter != nil {
		doctorIDs = []uuid.UUID{*doctorFilter}
	} else {
		seen := make(map[uuid.UUID]struct{}, len(slots))
		for _, sl := range slots {
			if _, ok := seen[sl.DoctorID]; !ok {
				seen[sl.DoctorID] = struct{}{}
				doctorIDs = append(doctorIDs, sl.DoctorID)
			}
		}
	}

	var booked []Booking
	if len(doctorIDs) > 0 {
		booked, err = s.bookings.ListForDoctors(ctx, doctorIDs)
		if err != nil {
			return nil, fmt.Errorf("list bookings: %w", err)
		}
	}

	bookedSet := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		bookedSet[tupleKey(b.DoctorID, b.Date, b.Time)] = struct{}{}
	}

	available := make([]AvailableSlot, 0, len(slots))
	for _, sl := range slots {
		if _, taken := bookedSet[tupleKey(sl.DoctorID, sl.Date, sl.Time)]; !taken {
			available = append(available, sl)
		}
	}

	s.cache.Put(ctx, key, available)

	return available, nil
}

// Book reserves the slot for the patient. The conflict checks and the insert
// run under a per-slot lock so concurrent attempts for the same slot cannot
// both pass; the unique index on (doctor, date, time) in the bookings table
// backstops the lock across processes that do not share it. The patient's
// own duplicate is checked before the general conflict to give the more
// specific rejection. The cache is invalidated on success only.
func (s *Service) Book(ctx context.Context, slotID, patientID uuid.UUID) (*Booking, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	var created *Booking

	err = s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		own, err := s.bookings.GetByTupleForPatient(lockCtx, slot.DoctorID, patientID, slot.Date, slot.Time)
		if err != nil && !errors.Is(err, ErrBookingNotFound) {
			return fmt.Errorf("check own booking: %w", err)
		}
		if own != nil {
			return ErrAlreadyBooked
		}

		any, err := s.bookings.GetByTuple(lockCtx, slot.DoctorID, slot.Date, slot.Time)
		if err != nil && !errors.Is(err, ErrBookingNotFound) {
			return fmt.Errorf("check slot booking: %w", err)
		}
		if any != nil {
			return ErrSlotTaken
		}

		b, err := s.bookings.Create(lockCtx, slot.DoctorID, patientID, slot.Date, slot.Time)
		if err != nil {
			if errors.Is(err, ErrDuplicateBooking) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create booking: %w", err)
		}

		created = b
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	s.cache.InvalidateAll(ctx)

	return created, nil
}

// Cancel removes a booking. Only a participant may cancel: the booking's
// doctor or its patient. Not-found and not-authorized stay distinct outcomes.
func (s *Service) Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return err
		}
		return fmt.Errorf("load booking: %w", err)
	}

	if booking.DoctorID != requesterID && booking.PatientID != requesterID {
		return ErrNotParticipant
	}

	if err := s.bookings.Delete(ctx, booking.ID); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	s.cache.InvalidateAll(ctx)

	return nil
}

// CreateSlot publishes availability for a doctor. Duplicate (doctor, date,
// time) slots are rejected here, in the creation path; storage imposes no
// uniqueness on slots.
func (s *Service) CreateSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Slot, error) {
	existing, err := s.slots.GetByTuple(ctx, doctorID, date, timeOfDay)
	if err != nil && !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("check existing slot: %w", err)
	}
	if existing != nil {
		return nil, ErrSlotExists
	}

	slot, err := s.slots.Create(ctx, doctorID, date, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.cache.InvalidateAll(ctx)

	return slot, nil
}

// ListDoctorBookings returns a doctor's bookings with patient details.
func (s *Service) ListDoctorBookings(ctx context.Context, doctorID uuid.UUID) ([]BookingDetail, error) {
	bookings, err := s.bookings.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor bookings: %w", err)
	}
	return bookings, nil
}

// ListPatientBookings returns a patient's bookings with doctor details.
func (s *Service) ListPatientBookings(ctx context.Context, patientID uuid.UUID) ([]BookingDetail, error) {
	bookings, err := s.bookings.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient bookings: %w", err)
	}
	return bookings, nil
}
