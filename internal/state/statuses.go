package state

type TaskStatus string

const (
	StatusQueued   TaskStatus = "queued"
	StatusRunning  TaskStatus = "running"
	StatusComplete TaskStatus = "complete"
	StatusFailed   TaskStatus = "failed"
)

func (s TaskStatus) String() string {
	return string(s)
}

var AllStatuses = []TaskStatus{
	StatusQueued,
	StatusRunning,
	StatusComplete,
	StatusFailed,
}

type Transition struct {
	From TaskStatus
	To   TaskStatus
}

// ValidTransitions is the full lifecycle of a scan task. Queued -> Failed is
// the abort path taken when the running transition itself cannot be persisted
// or the submission is rejected; there is no path out of a terminal status.
var ValidTransitions = []Transition{
	{From: StatusQueued, To: StatusRunning},
	{From: StatusQueued, To: StatusFailed},
	{From: StatusRunning, To: StatusComplete},
	{From: StatusRunning, To: StatusFailed},
}

func IsValidTransition(from, to TaskStatus) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func IsTerminal(s TaskStatus) bool {
	return s == StatusComplete || s == StatusFailed
}
