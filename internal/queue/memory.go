package queue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"scanpipe/custom_errors"
	"scanpipe/types"
)

type item struct {
	body        []byte
	subPriority int
	seq         uint64
}

type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].subPriority == h[j].subPriority {
		return h[i].seq < h[j].seq
	}
	return h[i].subPriority > h[j].subPriority
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(*item))
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[0 : n-1]
	return it
}

// memLane carries its own lock so a slow consumer on one lane never blocks
// producers on another.
type memLane struct {
	mu       sync.Mutex
	items    itemHeap
	capacity int
}

// MemoryFabric is the bounded in-process queue fabric: one heap per lane
// ordered by (sub-priority descending, enqueue sequence ascending).
type MemoryFabric struct {
	lanes map[types.Lane]*memLane
	seq   atomic.Uint64
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewMemoryFabric(laneCapacity int) *MemoryFabric {
	lanes := make(map[types.Lane]*memLane, len(types.AllLanes))
	for _, lane := range types.AllLanes {
		lanes[lane] = &memLane{capacity: laneCapacity}
	}
	return &MemoryFabric{
		lanes: lanes,
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (f *MemoryFabric) Enqueue(ctx context.Context, lane types.Lane, subPriority int, body []byte) error {
	if !lane.Valid() {
		return fmt.Errorf("unknown lane %q", lane)
	}
	select {
	case <-f.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l := f.lanes[lane]
	l.mu.Lock()
	if l.items.Len() >= l.capacity {
		l.mu.Unlock()
		return custom_errors.ErrQueueFull
	}
	heap.Push(&l.items, &item{
		body:        body,
		subPriority: clampSubPriority(subPriority),
		seq:         f.seq.Add(1),
	})
	l.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
	return nil
}

func (f *MemoryFabric) Dequeue(ctx context.Context) ([]byte, error) {
	for {
		for _, lane := range PullOrder {
			if body, ok := f.pop(lane); ok {
				return body, nil
			}
		}

		// The ready signal is collapsed across producers, so a periodic
		// re-check backs it up when several consumers race for one wakeup.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.done:
			return nil, ErrClosed
		case <-f.ready:
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (f *MemoryFabric) pop(lane types.Lane) ([]byte, bool) {
	l := f.lanes[lane]
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.items.Len() == 0 {
		return nil, false
	}
	it := heap.Pop(&l.items).(*item)
	return it.body, true
}

func (f *MemoryFabric) Depths(ctx context.Context) (map[types.Lane]int, error) {
	depths := make(map[types.Lane]int, len(f.lanes))
	for lane, l := range f.lanes {
		l.mu.Lock()
		depths[lane] = l.items.Len()
		l.mu.Unlock()
	}
	return depths, nil
}

func (f *MemoryFabric) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}
