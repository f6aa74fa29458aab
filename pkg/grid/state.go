package grid

import (
	"fmt"
	"sync"
)

// State is a phase of a batch run.
type State int

// A run moves through these states in order and never skips one.
const (
	Idle State = iota
	BuildingAlphabet1
	BuildingAlphabet2
	ComposingPairs
	Done
)

var stateNames = [...]string{
	Idle:              "idle",
	BuildingAlphabet1: "building-alphabet-1",
	BuildingAlphabet2: "building-alphabet-2",
	ComposingPairs:    "composing-pairs",
	Done:              "done",
}

func (s State) String() string {
	if s < Idle || s > Done {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Observer is told about every state transition.
type Observer func(from, to State)

// machine holds the run state. Only advance changes it.
type machine struct {
	mu        sync.Mutex
	state     State
	observers []Observer
}

// advance moves to the state directly after the current one. Any other
// target is refused.
func (m *machine) advance(to State) error {
	m.mu.Lock()
	from := m.state
	if to != from+1 || to > Done {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	m.state = to
	observers := m.observers
	m.mu.Unlock()

	tracer().Debugf("state %s -> %s", from, to)
	for _, o := range observers {
		o(from, to)
	}
	return nil
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
