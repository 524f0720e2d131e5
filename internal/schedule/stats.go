package schedule

import "time"

// Direction of a message record.
type Direction int

const (
	// Send marks an outbound message.
	Send Direction = iota + 1
	// Recv marks an inbound message.
	Recv
)

func (d Direction) String() string {
	switch d {
	case Send:
		return "send"
	case Recv:
		return "recv"
	default:
		return "unknown"
	}
}

// MessageRecord is one reported send or receive.
type MessageRecord struct {
	Direction  Direction
	MessageID  int
	ByteLength int64
	StatusCode int
}

// PairedMessageRecord is a logically linked send+receive pair treated as one
// timed request/response unit.
type PairedMessageRecord struct {
	SendMessageID int
	SendSize      int64
	RecvMessageID int
	RecvSize      int64
	RecvStatus    int
	Elapsed       time.Duration
}

// Failure is a business-reported failure for one execution. A task carries at
// most one: repeated ReportFailure calls keep the last.
type Failure struct {
	Desc     string
	StopUser bool
}

// ExecutionStats aggregates instrumentation for a single task execution. The
// wrapper resets it before every execution; it is never cumulative across
// runs of the same task.
type ExecutionStats struct {
	StartTime          time.Time
	TotalBytesSent     int64
	TotalBytesReceived int64
	SentMessages       []MessageRecord
	ReceivedMessages   []MessageRecord
	PairedMessages     []PairedMessageRecord
	Failure            *Failure
}

func (s *ExecutionStats) reset(now time.Time) {
	s.StartTime = now
	s.TotalBytesSent = 0
	s.TotalBytesReceived = 0
	s.SentMessages = s.SentMessages[:0]
	s.ReceivedMessages = s.ReceivedMessages[:0]
	s.PairedMessages = s.PairedMessages[:0]
	s.Failure = nil
}

// TaskCompletion is emitted exactly once per task execution.
type TaskCompletion struct {
	// TaskSet is the owning task-set's reporting description.
	TaskSet string
	// Task is the task's reporting description.
	Task          string
	Elapsed       time.Duration
	BytesSent     int64
	BytesReceived int64
	// Failure is empty when the execution succeeded.
	Failure string
}

// MessageEvent is the lightweight real-time event emitted for each reported
// send or receive.
type MessageEvent struct {
	Direction  Direction
	MessageID  int
	ByteLength int64
	StatusCode int
}

// Reporter consumes scheduling events. Reporting is best-effort: the wrapper
// never lets a reporter abort task execution.
type Reporter interface {
	TaskCompleted(e TaskCompletion)
	MessageSent(e MessageEvent)
	MessageReceived(e MessageEvent)
	MessagePaired(e PairedMessageRecord)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) TaskCompleted(TaskCompletion)      {}
func (NopReporter) MessageSent(MessageEvent)          {}
func (NopReporter) MessageReceived(MessageEvent)      {}
func (NopReporter) MessagePaired(PairedMessageRecord) {}

// MultiReporter fans events out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) TaskCompleted(e TaskCompletion) {
	for _, r := range m {
		r.TaskCompleted(e)
	}
}

func (m MultiReporter) MessageSent(e MessageEvent) {
	for _, r := range m {
		r.MessageSent(e)
	}
}

func (m MultiReporter) MessageReceived(e MessageEvent) {
	for _, r := range m {
		r.MessageReceived(e)
	}
}

func (m MultiReporter) MessagePaired(e PairedMessageRecord) {
	for _, r := range m {
		r.MessagePaired(e)
	}
}
