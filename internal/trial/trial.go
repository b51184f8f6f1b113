// Package trial implements the dwell-to-acquire trial state machine.
//
// The machine is a pure step function: callers own the State value, feed it
// one Input per frame, and keep the State that Step returns. Time and pointer
// position are supplied by the caller, so tests drive it with a fake clock.
package trial

import (
	"time"

	"github.com/verte-zerg/tuifitts/internal/metrics"
	"github.com/verte-zerg/tuifitts/internal/model"
)

// DefaultHold is the dwell time that confirms an acquisition.
const DefaultHold = 500 * time.Millisecond

// TargetSource supplies the next target given the previous one.
type TargetSource interface {
	Generate(previous *model.Target, minDistance float64) model.Target
}

// Phase is the coarse state of a session.
type Phase int

const (
	// AwaitingEntry means the pointer is outside the target.
	AwaitingEntry Phase = iota
	// Dwelling means the pointer is inside the target and the hold timer runs.
	Dwelling
	// Finished means the trial budget is exhausted.
	Finished
)

func (p Phase) String() string {
	switch p {
	case AwaitingEntry:
		return "awaiting"
	case Dwelling:
		return "dwelling"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Params configures a session.
type Params struct {
	// Requested is the number of scored trials the participant asked for.
	Requested   int
	Hold        time.Duration
	MinDistance float64
}

// State is the complete session context. It is a value: Step never mutates
// the State it receives.
type State struct {
	Params     Params
	Phase      Phase
	Current    model.Target
	Previous   *model.Target
	DwellStart time.Time
	TrialStart time.Time
	// Count is the number of completed trials including the warm-up.
	Count int
}

// Input is one frame sample.
type Input struct {
	Pointer model.Point
	Now     time.Time
}

// EventKind describes what a step did.
type EventKind int

const (
	EventNone EventKind = iota
	EventDwellStarted
	EventDwellReset
	EventWarmup
	EventTrialRecorded
)

// Event is the observable outcome of a step.
type Event struct {
	Kind   EventKind
	Trial  int
	Record *model.TrialRecord
	// Done is set on the step that exhausts the trial budget.
	Done bool
}

// IsWarmup reports whether a completed trial index is excluded from the
// dataset. Exactly one trial, the first acquired target, is discarded.
func IsWarmup(index int) bool {
	return index == 0
}

// Budget returns the total number of completed dwells a session needs: the
// requested scored trials plus the warm-up.
func (s State) Budget() int {
	return s.Params.Requested + 1
}

// Scored returns how many scored trials have been completed.
func (s State) Scored() int {
	if s.Count == 0 {
		return 0
	}
	return s.Count - 1
}

// Start builds the initial State with the first target on screen.
func Start(params Params, src TargetSource) State {
	if params.Hold <= 0 {
		params.Hold = DefaultHold
	}
	if params.Requested < 0 {
		params.Requested = 0
	}
	return State{
		Params:  params,
		Phase:   AwaitingEntry,
		Current: src.Generate(nil, params.MinDistance),
	}
}

// Step advances the machine by one frame.
func Step(s State, in Input, src TargetSource) (State, Event) {
	if s.Phase == Finished {
		return s, Event{Kind: EventNone}
	}
	if metrics.Distance(in.Pointer, s.Current.Center()) > s.Current.Radius {
		if s.Phase == Dwelling {
			s.Phase = AwaitingEntry
			s.DwellStart = time.Time{}
			return s, Event{Kind: EventDwellReset}
		}
		return s, Event{Kind: EventNone}
	}
	if s.Phase != Dwelling {
		s.Phase = Dwelling
		s.DwellStart = in.Now
		return s, Event{Kind: EventDwellStarted}
	}
	if in.Now.Sub(s.DwellStart) < s.Params.Hold {
		return s, Event{Kind: EventNone}
	}
	return complete(s, in.Now, src)
}

func complete(s State, now time.Time, src TargetSource) (State, Event) {
	index := s.Count
	var ev Event
	if IsWarmup(index) {
		// Seeds the previous position and starts timing; never measured.
		ev = Event{Kind: EventWarmup, Trial: index}
	} else {
		rec := measure(s, now, index)
		ev = Event{Kind: EventTrialRecorded, Trial: index, Record: &rec}
	}
	s.Count++
	if s.Count >= s.Budget() {
		s.Phase = Finished
		s.DwellStart = time.Time{}
		ev.Done = true
		return s, ev
	}
	prev := s.Current
	s.Previous = &prev
	s.Current = src.Generate(s.Previous, s.Params.MinDistance)
	s.TrialStart = now
	s.Phase = AwaitingEntry
	s.DwellStart = time.Time{}
	return s, ev
}

func measure(s State, now time.Time, index int) model.TrialRecord {
	movement := (now.Sub(s.TrialStart) - s.Params.Hold).Seconds()
	width := s.Current.Width()
	var distance, angle float64
	if s.Previous != nil {
		distance = metrics.Distance(s.Previous.Center(), s.Current.Center())
		angle = metrics.Angle(s.Previous.Center(), s.Current.Center())
	}
	return model.TrialRecord{
		Trial:        index,
		Distance:     distance,
		Width:        width,
		Angle:        angle,
		ID:           metrics.IndexOfDifficulty(distance, width),
		MovementTime: movement,
	}
}
