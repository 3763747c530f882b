// Package notify implements the single-slot transient notification shown to
// the user after store mutations.
package notify

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/reactive"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 3 * time.Second

// Kind classifies a notification for presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is a transient user-facing message.
type Notification struct {
	// Seq identifies the activation. It increases with every Show.
	Seq     uint64
	Message string
	Kind    Kind
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for expiry timers.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithDuration sets the visibility window.
func WithDuration(d time.Duration) Option {
	return func(s *Service) { s.duration = d }
}

// WithLogger sets the logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.lg = lg }
}

// Service holds at most one active notification.
//
// Show replaces the active notification and cancels its timer, so the newest
// notification always governs clearing. The expiry callback additionally
// compares sequence numbers, which covers a timer that was already firing
// when it got replaced. State changes are published after mu is released,
// so subscribers may call back into the service.
type Service struct {
	clock    clockwork.Clock
	duration time.Duration
	lg       *zap.Logger

	mu      sync.Mutex
	seq     uint64
	version uint64
	active  *Notification
	timer   clockwork.Timer
	current *reactive.Cell[reactive.Versioned[*Notification]]
}

// New returns a Service whose state cell reports writes to sched.
func New(sched reactive.Scheduler, opts ...Option) *Service {
	s := &Service{
		clock:    clockwork.NewRealClock(),
		duration: DefaultDuration,
		lg:       zap.NewNop(),
		current:  reactive.NewCell[reactive.Versioned[*Notification]](sched, reactive.Versioned[*Notification]{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Show activates a notification. An empty kind means KindSuccess.
func (s *Service) Show(message string, kind Kind) {
	if kind == "" {
		kind = KindSuccess
	}

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	n := &Notification{Seq: s.seq, Message: message, Kind: kind}
	seq := n.Seq
	s.timer = s.clock.AfterFunc(s.duration, func() { s.expire(seq) })
	next := s.setLocked(n)
	s.mu.Unlock()

	s.lg.Debug("Notification shown",
		zap.Uint64("seq", seq),
		zap.String("kind", string(kind)),
		zap.String("message", message),
	)
	reactive.Publish(s.current, next)
}

func (s *Service) expire(seq uint64) {
	s.mu.Lock()
	if s.active == nil || s.active.Seq != seq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	next := s.setLocked(nil)
	s.mu.Unlock()

	reactive.Publish(s.current, next)
}

// setLocked records n as the active notification. Must be called with s.mu
// held; the result is published once it is released.
func (s *Service) setLocked(n *Notification) reactive.Versioned[*Notification] {
	s.active = n
	s.version++
	return reactive.Versioned[*Notification]{Version: s.version, Value: n}
}

// Current returns the active notification.
func (s *Service) Current() (Notification, bool) {
	n := s.current.Get().Value
	if n == nil {
		return Notification{}, false
	}
	return *n, true
}

// Subscribe calls fn after every state change. ok is false when the slot
// became empty.
func (s *Service) Subscribe(fn func(n Notification, ok bool)) (cancel func()) {
	return s.current.Subscribe(func(v reactive.Versioned[*Notification]) {
		if v.Value == nil {
			fn(Notification{}, false)
			return
		}
		fn(*v.Value, true)
	})
}

// Dismiss clears the active notification immediately.
func (s *Service) Dismiss() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.active == nil {
		s.mu.Unlock()
		return
	}
	next := s.setLocked(nil)
	s.mu.Unlock()

	reactive.Publish(s.current, next)
}

// Close stops the pending expiry timer. The active notification is kept.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
