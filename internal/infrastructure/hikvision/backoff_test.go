package hikvision

import (
	"testing"
	"time"
)

func TestBackoffDoublesOnHardwareError(t *testing.T) {
	b := NewBackoffPolicy(100*time.Millisecond, 5*time.Second)

	b.OnHardwareError()
	if b.Delay() != 200*time.Millisecond {
		t.Errorf("delay = %v, want 200ms", b.Delay())
	}
	b.OnHardwareError()
	if b.Delay() != 400*time.Millisecond {
		t.Errorf("delay = %v, want 400ms", b.Delay())
	}
	if b.ConsecutiveErrors() != 2 {
		t.Errorf("consecutive errors = %d, want 2", b.ConsecutiveErrors())
	}
}

func TestBackoffCapsAtMax(t *testing.T) {
	b := NewBackoffPolicy(1*time.Second, 4*time.Second)

	for i := 0; i < 10; i++ {
		b.OnHardwareError()
	}
	if b.Delay() != 4*time.Second {
		t.Errorf("delay = %v, want the 4s cap", b.Delay())
	}
}

func TestBackoffDecaysAfterSuccessStreak(t *testing.T) {
	b := NewBackoffPolicy(100*time.Millisecond, 5*time.Second)
	b.OnHardwareError()
	b.OnHardwareError() // 400ms

	for i := 0; i < 19; i++ {
		b.OnSuccess()
	}
	if b.Delay() != 400*time.Millisecond {
		t.Errorf("delay must hold until the 20th success, got %v", b.Delay())
	}

	b.OnSuccess() // 20th
	if b.Delay() != 360*time.Millisecond {
		t.Errorf("delay = %v, want 360ms after decay", b.Delay())
	}
}

func TestBackoffDecayFloorsAtBase(t *testing.T) {
	b := NewBackoffPolicy(100*time.Millisecond, 5*time.Second)
	b.OnHardwareError() // 200ms

	for i := 0; i < 200; i++ {
		b.OnSuccess()
	}
	if b.Delay() != 100*time.Millisecond {
		t.Errorf("delay = %v, must never decay below base", b.Delay())
	}
}

func TestBackoffErrorResetsSuccessStreak(t *testing.T) {
	b := NewBackoffPolicy(100*time.Millisecond, 5*time.Second)
	b.OnHardwareError() // 200ms

	for i := 0; i < 19; i++ {
		b.OnSuccess()
	}
	b.OnHardwareError() // streak broken, 400ms
	for i := 0; i < 19; i++ {
		b.OnSuccess()
	}
	if b.Delay() != 400*time.Millisecond {
		t.Errorf("delay = %v, streak must restart after an error", b.Delay())
	}
}
