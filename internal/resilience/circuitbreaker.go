package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute when the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState is one of closed, open, half-open.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig is deliberately small: specforge uses the
// breaker only to stop hammering a wedged filesystem during the
// optimizer's housekeeping writes, not as a general-purpose resilience
// primitive, so it tracks consecutive failures rather than a
// sliding-window error rate.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SleepWindow      time.Duration
	HalfOpenMax      int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SleepWindow:      30 * time.Second,
		HalfOpenMax:      1,
	}
}

// CircuitBreaker is a minimal consecutive-failure breaker.
type CircuitBreaker struct {
	mu             sync.Mutex
	cfg            CircuitBreakerConfig
	state          CircuitState
	consecutive    int
	openedAt       time.Time
	halfOpenInUse  int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SleepWindow <= 0 {
		cfg.SleepWindow = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// CanExecute reports whether a call may proceed, transitioning
// open->half-open once the sleep window has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.cfg.SleepWindow {
			cb.state = StateHalfOpen
			cb.halfOpenInUse = 0
		} else {
			return false
		}
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenInUse >= cb.cfg.HalfOpenMax {
			return false
		}
		cb.halfOpenInUse++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutive = 0
	cb.state = StateClosed
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutive++
	if cb.state == StateHalfOpen || cb.consecutive >= cb.cfg.FailureThreshold {
		cb.state = StateOpen
		cb.openedAt = time.Now()
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn under circuit-breaker protection.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.CanExecute() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
