package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	redisclient "github.com/careslot/careslot/internal/redis"
)

// store is shared in-memory state for the fake repositories. The booking
// side enforces the same (doctor, date, time) uniqueness the real table does.
type store struct {
	mu       sync.Mutex
	slots    []Slot
	bookings []Booking
	doctors  map[uuid.UUID]UserInfo

	slotQueries    int
	bookingQueries int
}

func newStore() *store {
	return &store{doctors: make(map[uuid.UUID]UserInfo)}
}

func (s *store) addDoctor(name string) uuid.UUID {
	id := uuid.New()
	s.doctors[id] = UserInfo{ID: id, Name: name, Email: name + "@clinic.test"}
	return id
}

func (s *store) addSlot(doctorID uuid.UUID, date, timeOfDay string) Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := Slot{ID: uuid.New(), DoctorID: doctorID, Date: date, Time: timeOfDay}
	s.slots = append(s.slots, slot)
	return slot
}

type fakeSlotRepo struct{ s *store }

func (r *fakeSlotRepo) ListWithDoctor(_ context.Context, doctorFilter *uuid.UUID) ([]AvailableSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.slotQueries++

	var result []AvailableSlot
	for _, sl := range r.s.slots {
		if doctorFilter != nil && sl.DoctorID != *doctorFilter {
			continue
		}
		result = append(result, AvailableSlot{Slot: sl, Doctor: r.s.doctors[sl.DoctorID]})
	}
	return result, nil
}

func (r *fakeSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sl := range r.s.slots {
		if sl.ID == id {
			copied := sl
			return &copied, nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *fakeSlotRepo) GetByTuple(_ context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sl := range r.s.slots {
		if sl.DoctorID == doctorID && sl.Date == date && sl.Time == timeOfDay {
			copied := sl
			return &copied, nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *fakeSlotRepo) Create(_ context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot := Slot{ID: uuid.New(), DoctorID: doctorID, Date: date, Time: timeOfDay}
	r.s.slots = append(r.s.slots, slot)
	return &slot, nil
}

type fakeBookingRepo struct{ s *store }

func (r *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ID == id {
			copied := b
			return &copied, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *fakeBookingRepo) GetByTuple(_ context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.DoctorID == doctorID && b.Date == date && b.Time == timeOfDay {
			copied := b
			return &copied, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *fakeBookingRepo) GetByTupleForPatient(_ context.Context, doctorID, patientID uuid.UUID, date, timeOfDay string) (*Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.DoctorID == doctorID && b.PatientID == patientID && b.Date == date && b.Time == timeOfDay {
			copied := b
			return &copied, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *fakeBookingRepo) ListForDoctors(_ context.Context, doctorIDs []uuid.UUID) ([]Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bookingQueries++

	wanted := make(map[uuid.UUID]struct{}, len(doctorIDs))
	for _, id := range doctorIDs {
		wanted[id] = struct{}{}
	}

	var result []Booking
	for _, b := range r.s.bookings {
		if _, ok := wanted[b.DoctorID]; ok {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]BookingDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []BookingDetail
	for _, b := range r.s.bookings {
		if b.DoctorID == doctorID {
			result = append(result, BookingDetail{Booking: b})
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]BookingDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []BookingDetail
	for _, b := range r.s.bookings {
		if b.PatientID == patientID {
			info := r.s.doctors[b.DoctorID]
			result = append(result, BookingDetail{Booking: b, Doctor: &info})
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) Create(_ context.Context, doctorID, patientID uuid.UUID, date, timeOfDay string) (*Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.DoctorID == doctorID && b.Date == date && b.Time == timeOfDay {
			return nil, ErrDuplicateBooking
		}
	}
	booking := Booking{ID: uuid.New(), DoctorID: doctorID, PatientID: patientID, Date: date, Time: timeOfDay}
	r.s.bookings = append(r.s.bookings, booking)
	return &booking, nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, b := range r.s.bookings {
		if b.ID == id {
			r.s.bookings = append(r.s.bookings[:i], r.s.bookings[i+1:]...)
			return nil
		}
	}
	return ErrBookingNotFound
}

func newTestService(s *store) *Service {
	return NewService(
		&fakeSlotRepo{s: s},
		&fakeBookingRepo{s: s},
		NewMemoryCache(),
		redisclient.NewLocalSlotLocker(),
	)
}

func TestListAvailable_ExcludesBookedSlots(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	patient := uuid.New()
	open := s.addSlot(doctor, "2024-01-01", "09:00")
	booked := s.addSlot(doctor, "2024-01-01", "10:00")

	if _, err := svc.Book(ctx, booked.ID, patient); err != nil {
		t.Fatalf("book: %v", err)
	}

	available, err := svc.ListAvailable(ctx, nil)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}

	if len(available) != 1 {
		t.Fatalf("expected 1 available slot, got %d", len(available))
	}
	if available[0].ID != open.ID {
		t.Errorf("expected slot %s available, got %s", open.ID, available[0].ID)
	}
	if available[0].Doctor.ID != doctor {
		t.Errorf("expected doctor info resolved")
	}

	// The booked slot must also be hidden under the doctor filter.
	filtered, err := svc.ListAvailable(ctx, &doctor)
	if err != nil {
		t.Fatalf("list available filtered: %v", err)
	}
	for _, sl := range filtered {
		if sl.ID == booked.ID {
			t.Errorf("booked slot leaked into filtered results")
		}
	}
}

func TestBook_SecondPatientRejected(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	slot := s.addSlot(doctor, "2024-01-01", "09:00")

	if _, err := svc.Book(ctx, slot.ID, uuid.New()); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := svc.Book(ctx, slot.ID, uuid.New())
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	if len(s.bookings) != 1 {
		t.Errorf("expected exactly 1 booking, got %d", len(s.bookings))
	}
}

func TestBook_SamePatientTwice(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	patient := uuid.New()
	slot := s.addSlot(doctor, "2024-01-01", "09:00")

	if _, err := svc.Book(ctx, slot.ID, patient); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := svc.Book(ctx, slot.ID, patient)
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("expected ErrAlreadyBooked, got %v", err)
	}

	if len(s.bookings) != 1 {
		t.Errorf("expected booking count unchanged at 1, got %d", len(s.bookings))
	}
}

func TestBook_UnknownSlot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newStore())

	_, err := svc.Book(ctx, uuid.New(), uuid.New())
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestListAvailable_CacheHitSkipsRepositories(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	s.addSlot(doctor, "2024-01-01", "09:00")

	if _, err := svc.ListAvailable(ctx, nil); err != nil {
		t.Fatalf("first list: %v", err)
	}
	slotQueries, bookingQueries := s.slotQueries, s.bookingQueries

	if _, err := svc.ListAvailable(ctx, nil); err != nil {
		t.Fatalf("second list: %v", err)
	}

	if s.slotQueries != slotQueries || s.bookingQueries != bookingQueries {
		t.Errorf("cached read hit the repositories: slots %d->%d bookings %d->%d",
			slotQueries, s.slotQueries, bookingQueries, s.bookingQueries)
	}
}

func TestListAvailable_CacheInvalidatedByBooking(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	slot := s.addSlot(doctor, "2024-01-01", "09:00")

	available, err := svc.ListAvailable(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(available) != 1 || available[0].ID != slot.ID {
		t.Fatalf("expected the slot to be cached as available")
	}

	if _, err := svc.Book(ctx, slot.ID, uuid.New()); err != nil {
		t.Fatalf("book: %v", err)
	}

	available, err = svc.ListAvailable(ctx, nil)
	if err != nil {
		t.Fatalf("list after booking: %v", err)
	}
	for _, sl := range available {
		if sl.ID == slot.ID {
			t.Errorf("stale cache: booked slot still listed as available")
		}
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	patient := uuid.New()
	slot := s.addSlot(doctor, "2024-01-01", "09:00")

	booking, err := svc.Book(ctx, slot.ID, patient)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// A stranger may not cancel.
	if err := svc.Cancel(ctx, booking.ID, uuid.New()); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if len(s.bookings) != 1 {
		t.Fatalf("booking removed by unauthorized cancel")
	}

	// The patient may.
	if err := svc.Cancel(ctx, booking.ID, patient); err != nil {
		t.Fatalf("cancel by patient: %v", err)
	}
	if len(s.bookings) != 0 {
		t.Fatalf("booking not removed")
	}

	// Cancelling again is not-found, not a silent success.
	if err := svc.Cancel(ctx, booking.ID, patient); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound on second cancel, got %v", err)
	}
}

func TestCancel_ByDoctor(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	slot := s.addSlot(doctor, "2024-01-01", "09:00")

	booking, err := svc.Book(ctx, slot.ID, uuid.New())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := svc.Cancel(ctx, booking.ID, doctor); err != nil {
		t.Fatalf("cancel by doctor: %v", err)
	}
	if len(s.bookings) != 0 {
		t.Fatalf("booking not removed")
	}
}

func TestCreateSlot_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")

	if _, err := svc.CreateSlot(ctx, doctor, "2024-01-01", "09:00"); err != nil {
		t.Fatalf("create slot: %v", err)
	}

	_, err := svc.CreateSlot(ctx, doctor, "2024-01-01", "09:00")
	if !errors.Is(err, ErrSlotExists) {
		t.Fatalf("expected ErrSlotExists, got %v", err)
	}
}

func TestBook_ConcurrentAttempts(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-a")
	slot := s.addSlot(doctor, "2024-01-01", "09:00")

	const attempts = 16

	var wg sync.WaitGroup
	var created, conflicted int64
	var mu sync.Mutex

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, slot.ID, uuid.New())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrSlotTaken):
				conflicted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected exactly 1 successful booking, got %d", created)
	}
	if conflicted != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicted)
	}
	if len(s.bookings) != 1 {
		t.Errorf("expected 1 stored booking, got %d", len(s.bookings))
	}
}

// The end to end flow: publish, list, book, conflict, cancel, list again.
func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	svc := newTestService(s)

	doctor := s.addDoctor("dr-d")
	patientP := uuid.New()
	patientQ := uuid.New()

	slot, err := svc.CreateSlot(ctx, doctor, "2024-01-01", "09:00")
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	available, err := svc.ListAvailable(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(available) != 1 || available[0].ID != slot.ID {
		t.Fatalf("expected the new slot to be available")
	}

	booking, err := svc.Book(ctx, slot.ID, patientP)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	available, err = svc.ListAvailable(ctx, nil)
	if err != nil {
		t.Fatalf("list after booking: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected no available slots, got %d", len(available))
	}

	filtered, err := svc.ListAvailable(ctx, &doctor)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("expected no available slots for doctor, got %d", len(filtered))
	}

	if _, err := svc.Book(ctx, slot.ID, patientQ); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken for second patient, got %v", err)
	}

	if err := svc.Cancel(ctx, booking.ID, patientP); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	available, err = svc.ListAvailable(ctx, nil)
	if err != nil {
		t.Fatalf("list after cancel: %v", err)
	}
	if len(available) != 1 || available[0].ID != slot.ID {
		t.Fatalf("expected the slot to be available again after cancellation")
	}
}
