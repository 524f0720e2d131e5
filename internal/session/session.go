// Package session defines the abstract connection contract task-sets use to
// talk to the system under test. The scheduling core never implements
// transport; task bodies drive this interface and report what they send and
// receive.
package session

import (
	"context"
	"sync/atomic"
)

// State represents the connection lifecycle state of a session.
type State int32

const (
	// Disconnected indicates no connection is established.
	Disconnected State = iota
	// Connecting indicates a connection attempt is in progress.
	Connecting
	// Connected indicates the session is established and usable.
	Connected
	// Reconnecting indicates a dropped connection is being re-established.
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Params carries transport-specific arguments for connect/send/recv calls.
type Params map[string]any

// Session is the transport contract between task bodies and the system under
// test. Implementations own their wire protocol; the scheduler only reads
// Connected/State and invokes the operations from within task executions.
type Session interface {
	// ID returns the process-unique session id.
	ID() int64

	// State returns the current connection state.
	State() State

	// Connected reports whether the session is established.
	Connected() bool

	// Connect establishes the session.
	Connect(ctx context.Context, params Params) error

	// Disconnect tears the session down.
	Disconnect() error

	// Send transmits one message. The return value is transport-specific.
	Send(ctx context.Context, params Params) (any, error)

	// Recv receives one message.
	Recv(ctx context.Context, params Params) ([]byte, error)

	// SendAndRecv performs a paired request/response exchange.
	SendAndRecv(ctx context.Context, params Params) (any, error)
}

var sessionSeq atomic.Int64

// NextID returns a process-unique session id. Implementations should call it
// once at construction.
func NextID() int64 {
	return sessionSeq.Add(1)
}
