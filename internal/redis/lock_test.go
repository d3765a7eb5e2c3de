package redisclient

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLocalSlotLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalSlotLocker()
	slotID := uuid.New()

	var busy, overlaps, counter int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithSlotLock(context.Background(), slotID, func(context.Context) error {
				if !atomic.CompareAndSwapInt32(&busy, 0, 1) {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&counter, 1)
				atomic.StoreInt32(&busy, 0)
				return nil
			})
			if err != nil {
				t.Errorf("lock: %v", err)
			}
		}()
	}
	wg.Wait()

	if overlaps != 0 {
		t.Errorf("critical section overlapped %d times", overlaps)
	}
	if counter != 16 {
		t.Errorf("expected 16 executions, got %d", counter)
	}
}

func TestLocalSlotLocker_IndependentSlots(t *testing.T) {
	locker := NewLocalSlotLocker()

	// Holding one slot's lock must not block another slot.
	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = locker.WithSlotLock(context.Background(), uuid.New(), func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	done := make(chan struct{})
	go func() {
		_ = locker.WithSlotLock(context.Background(), uuid.New(), func(context.Context) error {
			return nil
		})
		close(done)
	}()

	<-done
	close(release)
}

func TestLocalSlotLocker_PropagatesError(t *testing.T) {
	locker := NewLocalSlotLocker()

	want := context.DeadlineExceeded
	err := locker.WithSlotLock(context.Background(), uuid.New(), func(context.Context) error {
		return want
	})
	if err != want {
		t.Errorf("expected %v, got %v", want, err)
	}
}
