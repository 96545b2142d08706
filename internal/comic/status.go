package comic

import "fmt"

// StatusKind represents the lifecycle of a comic entity.
type StatusKind string

const (
	StatusPending StatusKind = "pending"
	StatusWorking StatusKind = "working"
	StatusSuccess StatusKind = "success"
	StatusFailed  StatusKind = "failed"
)

// Status is the tagged lifecycle value surfaced in events. Stage and Percent
// are meaningful for working statuses, Err for failed ones.
type Status struct {
	Kind    StatusKind
	Stage   Stage
	Percent float64
	Err     error
}

// Pending returns the initial status of a freshly registered entity.
func Pending() Status {
	return Status{Kind: StatusPending}
}

// Working returns an in-progress status at the given stage and percent.
func Working(stage Stage, percent float64) Status {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return Status{Kind: StatusWorking, Stage: stage, Percent: percent}
}

// Succeeded returns the terminal success status.
func Succeeded() Status {
	return Status{Kind: StatusSuccess, Percent: 100}
}

// Failure returns the terminal failed status, recording the stage the entity
// was in when the error occurred.
func Failure(stage Stage, err error) Status {
	return Status{Kind: StatusFailed, Stage: stage, Err: err}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s.Kind == StatusSuccess || s.Kind == StatusFailed
}

func (s Status) String() string {
	switch s.Kind {
	case StatusWorking:
		return fmt.Sprintf("%s %.0f%%", s.Stage, s.Percent)
	case StatusFailed:
		if s.Err != nil {
			return fmt.Sprintf("failed: %v", s.Err)
		}
		return "failed"
	case StatusSuccess:
		return "success"
	default:
		return string(StatusPending)
	}
}
