package voice

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/observability"
)

// State is the sequencer's position in one recording session.
type State string

const (
	StateIdle           State = "idle"
	StateRecording      State = "recording"
	StateValidating     State = "validating"
	StateAccepted       State = "accepted"
	StateRetryScheduled State = "retry_scheduled"
	StateFailed         State = "failed"
)

// SequencerConfig bounds automatic re-capture.
type SequencerConfig struct {
	// MaxAttempts is the number of rejected captures tolerated before
	// the session fails.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff: base × 2^(attempts-1).
	BaseDelay time.Duration
}

func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{MaxAttempts: 2, BaseDelay: 2 * time.Second}
}

// retryDelay returns the backoff before re-capture attempt N (1-based).
func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return base
	}
	return base << (attempt - 1)
}

// Sequencer owns retry state for one recording session. The start callback
// begins a new capture; it runs on the timer goroutine when a retry fires,
// never under the sequencer's lock. One sequencer belongs to one session
// context, not to a global registry.
type Sequencer struct {
	mu    sync.Mutex
	cfg   SequencerConfig
	state State
	log   zerolog.Logger
	start func()

	attempts   int
	lastReason string
	timer      *time.Timer
}

func NewSequencer(cfg SequencerConfig, start func(), logger zerolog.Logger) *Sequencer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultSequencerConfig().MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultSequencerConfig().BaseDelay
	}
	return &Sequencer{
		cfg:   cfg,
		state: StateIdle,
		start: start,
		log:   logger.With().Str("component", "retry_sequencer").Logger(),
	}
}

// BeginSession starts a fresh user-initiated recording: any pending retry
// timer is cancelled, the attempt counter resets, and capture starts.
func (s *Sequencer) BeginSession() {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.attempts = 0
	s.lastReason = ""
	s.state = StateRecording
	s.mu.Unlock()

	s.start()
}

// OnCaptureDone feeds the validation verdict for the capture that just
// finished. An accepted verdict ends the session; a rejected one schedules
// a backoff-delayed re-capture until the attempt cap is reached.
func (s *Sequencer) OnCaptureDone(v Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording && s.state != StateValidating {
		s.log.Debug().Str("state", string(s.state)).Msg("verdict ignored outside a session")
		return
	}
	s.state = StateValidating

	if v.OK {
		s.state = StateAccepted
		s.log.Debug().Int("attempts", s.attempts).Msg("capture accepted")
		return
	}

	s.attempts++
	s.lastReason = v.Reason
	if s.attempts >= s.cfg.MaxAttempts {
		s.state = StateFailed
		s.log.Info().
			Int("attempts", s.attempts).
			Str("reason", v.Reason).
			Msg("giving up after repeated rejected captures")
		return
	}

	delay := retryDelay(s.cfg.BaseDelay, s.attempts)
	s.state = StateRetryScheduled
	observability.RecordRetryScheduled(s.attempts)
	s.log.Info().
		Int("attempt", s.attempts).
		Dur("delay", delay).
		Str("reason", v.Reason).
		Msg("scheduling re-capture")

	s.timer = time.AfterFunc(delay, s.retryFired)
}

func (s *Sequencer) retryFired() {
	s.mu.Lock()
	if s.state != StateRetryScheduled {
		s.mu.Unlock()
		return
	}
	s.state = StateRecording
	s.timer = nil
	s.mu.Unlock()

	s.start()
}

// Cancel aborts the session and any pending retry.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.state = StateIdle
}

func (s *Sequencer) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// State returns the current session state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns how many captures were rejected this session.
func (s *Sequencer) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// LastFailure returns the most recent rejection reason.
func (s *Sequencer) LastFailure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReason
}
