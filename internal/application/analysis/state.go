package analysis

import "fmt"

// State of a single Analyze call.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingModel State = "awaiting_model"
	StateDone          State = "done"
)

// Outcome is set once a call reaches StateDone.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Transition is reported to an Observer on every state change.
type Transition struct {
	From    State
	To      State
	Outcome Outcome
}

// Observer receives transitions. It must not block.
type Observer func(Transition)

var allowed = map[State][]State{
	StateIdle:          {StateAwaitingModel, StateDone},
	StateAwaitingModel: {StateDone},
}

// run tracks one call through the state machine.
type run struct {
	state   State
	observe Observer
}

func newRun(o Observer) *run { return &run{state: StateIdle, observe: o} }

func (r *run) to(next State, outcome Outcome) error {
	ok := false
	for _, s := range allowed[r.state] {
		if s == next {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid transition %s -> %s", r.state, next)
	}
	t := Transition{From: r.state, To: next, Outcome: outcome}
	r.state = next
	if r.observe != nil {
		r.observe(t)
	}
	return nil
}
