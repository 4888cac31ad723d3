package dex

import (
	"sync"

	"github.com/fivetwenty-io/dex/internal/constants"
)

// ScrollStatus is the pair of store flags the coordinator consults.
type ScrollStatus struct {
	Loading bool
	HasMore bool
}

// ScrollState is the coordinator's sentinel state.
type ScrollState int

const (
	// ScrollIdle means no sentinel is being observed.
	ScrollIdle ScrollState = iota
	// ScrollArmed means the sentinel is observed and may trigger.
	ScrollArmed
	// ScrollFired means load-more was invoked for the current visibility entry.
	ScrollFired
)

func (s ScrollState) String() string {
	switch s {
	case ScrollArmed:
		return "armed"
	case ScrollFired:
		return "fired"
	default:
		return "idle"
	}
}

// ScrollOption configures a Scroller.
type ScrollOption func(*Scroller)

// WithRootMargin extends the viewport on both edges when testing visibility.
func WithRootMargin(margin int) ScrollOption {
	return func(s *Scroller) {
		if margin >= 0 {
			s.rootMargin = margin
		}
	}
}

// Scroller triggers loadMore at most once per visibility entry of a sentinel.
// Flags are read through status when a trigger is considered, never cached.
type Scroller struct {
	mu         sync.Mutex
	state      ScrollState
	attached   bool
	inFlight   bool
	triggered  bool
	rootMargin int
	status     func() ScrollStatus
	loadMore   func()
}

// NewScroller creates an idle coordinator.
func NewScroller(status func() ScrollStatus, loadMore func(), opts ...ScrollOption) *Scroller {
	s := &Scroller{
		status:     status,
		loadMore:   loadMore,
		rootMargin: constants.DefaultRootMargin,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns the current sentinel state.
func (s *Scroller) State() ScrollState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// RootMargin returns the configured margin.
func (s *Scroller) RootMargin() int {
	return s.rootMargin
}

// Attach starts observing a new sentinel, replacing any previous one. A fired
// sentinel is discarded along with its trigger. Observation only begins while
// not loading and more results exist; otherwise the sentinel waits in idle
// until LoadingChanged(false).
func (s *Scroller) Attach() ScrollState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attached = true
	s.triggered = false

	if s.state == ScrollFired {
		s.state = ScrollIdle
	}

	s.arm()

	return s.state
}

// arm moves idle to armed when the flags allow observation. Caller holds mu.
func (s *Scroller) arm() {
	if !s.attached || s.state != ScrollIdle {
		return
	}

	status := s.status()
	if !status.Loading && status.HasMore {
		s.state = ScrollArmed
	}
}

// Detach stops observing the sentinel.
func (s *Scroller) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attached = false
	s.state = ScrollIdle
	s.triggered = false
}

// Observe reports a visibility change of the sentinel and returns whether
// loadMore was invoked. loadMore runs outside the coordinator's lock.
func (s *Scroller) Observe(visible bool) bool {
	s.mu.Lock()

	if !visible {
		s.triggered = false
		if s.state == ScrollFired {
			s.state = ScrollArmed
		}

		s.mu.Unlock()

		return false
	}

	if s.state != ScrollArmed || s.inFlight || s.triggered {
		s.mu.Unlock()

		return false
	}

	status := s.status()
	if !status.HasMore || status.Loading {
		s.mu.Unlock()

		return false
	}

	s.state = ScrollFired
	s.inFlight = true
	s.triggered = true
	s.mu.Unlock()

	s.loadMore()

	return true
}

// LoadingChanged reports a change of the store's loading flag. When loading
// ends the in-flight guard is cleared and an attached idle sentinel is armed.
func (s *Scroller) LoadingChanged(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loading {
		return
	}

	s.inFlight = false
	s.arm()
}

// Intersects reports whether a sentinel at position sentinel lies inside the
// viewport [viewportTop, viewportTop+viewportHeight) widened by the root margin.
func (s *Scroller) Intersects(sentinel, viewportTop, viewportHeight int) bool {
	return sentinel >= viewportTop-s.rootMargin &&
		sentinel < viewportTop+viewportHeight+s.rootMargin
}
