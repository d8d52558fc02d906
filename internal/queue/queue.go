package queue

import (
	"context"
	"errors"

	"scanpipe/types"
)

// ErrClosed is returned by Dequeue once the fabric has been shut down.
var ErrClosed = errors.New("queue fabric is closed")

// PullOrder is the dispatcher's default lane preference. A lower lane is only
// served when every higher lane is empty; idle workers always pull whatever is
// available, so the low lane cannot starve.
var PullOrder = []types.Lane{types.LaneHigh, types.LaneMedium, types.LaneLow}

// Fabric is the priority queue the dispatcher pulls from. Implementations must
// support concurrent enqueue from many producers and concurrent dequeue from
// many consumers without delivering the same job twice.
type Fabric interface {
	// Enqueue appends a job body to the given lane. Sub-priority is clamped
	// to 0-10; higher sub-priority is served first within the lane, FIFO at
	// equal sub-priority. A full lane rejects with custom_errors.ErrQueueFull.
	Enqueue(ctx context.Context, lane types.Lane, subPriority int, body []byte) error

	// Dequeue blocks until a job body is available or the context is done,
	// returning the highest-priority ready body.
	Dequeue(ctx context.Context) ([]byte, error)

	Close() error
}

// DepthReporter exposes per-lane backlog counts for the status endpoints.
type DepthReporter interface {
	Depths(ctx context.Context) (map[types.Lane]int, error)
}

func clampSubPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > 10 {
		return 10
	}
	return p
}
