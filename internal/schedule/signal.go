package schedule

// SignalKind classifies the scheduling directive returned from a task
// execution. The runner's dispatch loop switches on it; signals are control
// transfer, not errors.
type SignalKind int

const (
	// SignalNone indicates normal completion; the runner proceeds with its
	// usual pacing and asks for the next work item.
	SignalNone SignalKind = iota

	// SignalReschedule indicates the active task-set's cursor was moved by a
	// jump; the next work item comes from the same task-set.
	SignalReschedule

	// SignalInterrupt indicates the active task-set changed; the next work
	// item comes from the newly positioned task-set.
	SignalInterrupt
)

func (k SignalKind) String() string {
	switch k {
	case SignalNone:
		return "none"
	case SignalReschedule:
		return "reschedule"
	case SignalInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// Signal is the tagged result of executing one work item. Immediate signals
// bypass the runner's inter-task pacing; deferred ones still participate in
// it.
type Signal struct {
	Kind      SignalKind
	Immediate bool
}

func (s Signal) String() string {
	if s.Kind == SignalNone {
		return "none"
	}
	if s.Immediate {
		return s.Kind.String() + "(immediate)"
	}
	return s.Kind.String() + "(deferred)"
}
