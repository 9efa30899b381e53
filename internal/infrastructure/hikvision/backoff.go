package hikvision

import "time"

// BackoffPolicy is the adaptive inter-request delay for bulk pushes. The
// embedded HTTP stacks on the controllers fall over under sustained load:
// the delay doubles on each consecutive hardware error and slowly decays
// again once the device behaves. Pure transitions, no sleeping here.
type BackoffPolicy struct {
	Base    time.Duration
	Max     time.Duration
	Current time.Duration

	consecutiveErrors    int
	consecutiveSuccesses int
}

// NewBackoffPolicy creates a policy starting at base delay
func NewBackoffPolicy(base, max time.Duration) *BackoffPolicy {
	return &BackoffPolicy{Base: base, Max: max, Current: base}
}

// Delay returns the delay to apply before the next request
func (b *BackoffPolicy) Delay() time.Duration {
	return b.Current
}

// OnHardwareError doubles the delay, capped at Max
func (b *BackoffPolicy) OnHardwareError() {
	b.consecutiveErrors++
	b.consecutiveSuccesses = 0
	b.Current *= 2
	if b.Current > b.Max {
		b.Current = b.Max
	}
}

// OnSuccess decays the delay by 10% after every 20 consecutive successes,
// floored at Base
func (b *BackoffPolicy) OnSuccess() {
	b.consecutiveErrors = 0
	b.consecutiveSuccesses++
	if b.consecutiveSuccesses%20 == 0 {
		b.Current = b.Current * 9 / 10
		if b.Current < b.Base {
			b.Current = b.Base
		}
	}
}

// ConsecutiveErrors returns the current error streak length
func (b *BackoffPolicy) ConsecutiveErrors() int {
	return b.consecutiveErrors
}
