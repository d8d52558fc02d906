package schedule

import (
	"context"
	"log"
	"sync"
	"time"
)

// TriggerState is the per-trigger lifecycle. Fired is transient: the trigger
// re-arms for its next occurrence immediately after its action is dispatched.
type TriggerState int

const (
	Idle TriggerState = iota
	Armed
	Fired
)

func (s TriggerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	default:
		return "unknown"
	}
}

// Trigger is one periodic action on a fixed time-of-day schedule.
type Trigger struct {
	Name string
	Hour int
	// Weekday narrows the daily schedule to one day of the week.
	Weekday *time.Weekday
	// Fire runs the action for the given occurrence. Errors are logged at
	// this boundary and never prevent re-arming.
	Fire func(ctx context.Context, occurrence time.Time) error
}

// Scheduler arms one timer per trigger and re-arms after every fire. It holds
// no distributed lock: both maintenance actions tolerate duplicate firing
// across replicas.
type Scheduler struct {
	triggers []Trigger

	now func() time.Time

	mu     sync.Mutex
	states map[string]TriggerState
}

func NewScheduler(triggers ...Trigger) *Scheduler {
	states := make(map[string]TriggerState, len(triggers))
	for _, t := range triggers {
		states[t.Name] = Idle
	}
	return &Scheduler{
		triggers: triggers,
		now:      time.Now,
		states:   states,
	}
}

// Start arms every trigger and blocks until the context is done.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.triggers {
		wg.Add(1)
		go func(t Trigger) {
			defer wg.Done()
			s.runTrigger(ctx, t)
		}(t)
	}
	wg.Wait()
}

func (s *Scheduler) runTrigger(ctx context.Context, t Trigger) {
	for {
		occurrence := NextOccurrence(s.now(), t.Hour, t.Weekday)
		s.setState(t.Name, Armed)
		log.Printf("periodic trigger %s armed for %s", t.Name, occurrence.Format(time.RFC3339))

		timer := time.NewTimer(occurrence.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(t.Name, Idle)
			return
		case <-timer.C:
		}

		s.setState(t.Name, Fired)
		if err := t.Fire(ctx, occurrence); err != nil {
			log.Printf("periodic trigger %s failed: %v", t.Name, err)
		}
		// Loop re-arms for the next occurrence; missed ones are not backfilled.
	}
}

// State reports the current state of a named trigger.
func (s *Scheduler) State(name string) TriggerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[name]
}

func (s *Scheduler) setState(name string, st TriggerState) {
	s.mu.Lock()
	s.states[name] = st
	s.mu.Unlock()
}
