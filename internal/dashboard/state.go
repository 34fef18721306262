package dashboard

import (
	"sync"
	"time"

	"happinessdash/internal/happiness"
)

// Screen identifies which top-level view a state renders as.
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenLoading
	ScreenError
)

func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenError:
		return "error"
	default:
		return "dashboard"
	}
}

// State is an immutable snapshot of the dashboard UI state.
type State struct {
	Loading   bool
	Err       string
	Results   *happiness.Results
	SourceURL string
	FetchID   string
	Endpoint  string
	UpdatedAt time.Time
}

// Screen returns the view the state renders as. An error replaces the
// dashboard entirely so stale results are never shown next to it.
func (s State) Screen() Screen {
	switch {
	case s.Loading:
		return ScreenLoading
	case s.Err != "":
		return ScreenError
	default:
		return ScreenDashboard
	}
}

// Action is a state transition applied by Reduce.
type Action interface {
	apply(State) State
}

// FetchStarted marks the beginning of a fetch and clears any prior error.
type FetchStarted struct {
	FetchID string
}

func (a FetchStarted) apply(s State) State {
	s.Loading = true
	s.Err = ""
	s.FetchID = a.FetchID
	return s
}

// FetchSucceeded replaces the current results wholesale.
type FetchSucceeded struct {
	Results   *happiness.Results
	SourceURL string
	Endpoint  string
	At        time.Time
}

func (a FetchSucceeded) apply(s State) State {
	s.Loading = false
	s.Err = ""
	s.Results = a.Results
	s.Endpoint = a.Endpoint
	s.UpdatedAt = a.At
	if a.SourceURL != "" {
		s.SourceURL = a.SourceURL
	}
	return s
}

// FetchFailed records the user-visible error of a fetch.
type FetchFailed struct {
	Message string
	At      time.Time
}

func (a FetchFailed) apply(s State) State {
	s.Loading = false
	s.Err = a.Message
	s.UpdatedAt = a.At
	return s
}

// Reduce applies action to state and returns the next state.
func Reduce(state State, action Action) State {
	if action == nil {
		return state
	}
	return action.apply(state)
}

// Store owns the dashboard state and hands out snapshots.
type Store struct {
	mu          sync.RWMutex
	state       State
	nextID      int
	subscribers map[int]func(State)
}

// NewStore returns a store seeded with initial.
func NewStore(initial State) *Store {
	return &Store{state: initial, subscribers: make(map[int]func(State))}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch reduces action into the stored state, notifies subscribers and
// returns the new state.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	next := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to receive every new state. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
