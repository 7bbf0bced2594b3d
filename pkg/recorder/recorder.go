package recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/draftsmith/bulwark/pkg/telemetry"
)

// Store persists a batch of records. Implementations must tolerate being
// called from a single goroutine at a time.
type Store interface {
	SaveBatch(ctx context.Context, batch []DetectedAttack) error
}

const closeFlushTimeout = 5 * time.Second

// Recorder is the single-owner actor around the attack buffer. All buffer
// state lives inside the run goroutine; callers talk to it over channels, so
// the capacity-triggered flush, the periodic flush, and concurrent Record
// calls can never race on the batch.
type Recorder struct {
	records  chan DetectedAttack
	flushReq chan chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	closed   atomic.Bool

	store    Store
	capacity int
	interval time.Duration
	tel      *telemetry.Client
}

// New starts a Recorder flushing to store when the buffer holds capacity
// records or every interval, whichever comes first.
func New(store Store, capacity int, interval time.Duration, tel *telemetry.Client) *Recorder {
	if capacity <= 0 {
		capacity = 20
	}
	if interval <= 0 {
		interval = 60 * time.Second
	}
	r := &Recorder{
		records:  make(chan DetectedAttack, capacity*2),
		flushReq: make(chan chan struct{}, 1),
		done:     make(chan struct{}),
		store:    store,
		capacity: capacity,
		interval: interval,
		tel:      tel,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record hands a record to the buffer. Never blocks and never fails: if the
// channel is full or the recorder is closed, the record is dropped.
func (r *Recorder) Record(a DetectedAttack) {
	if r.closed.Load() {
		return
	}
	select {
	case r.records <- a:
	default:
		r.tel.Debug("attack record dropped, buffer full")
	}
}

// Flush forces a flush of everything recorded so far and waits for it to
// complete. Mainly for tests and shutdown paths.
func (r *Recorder) Flush() {
	if r.closed.Load() {
		return
	}
	ack := make(chan struct{})
	select {
	case r.flushReq <- ack:
		<-ack
	case <-r.done:
	}
}

// Close stops the recorder after one best-effort final flush. Records
// arriving after Close are dropped.
func (r *Recorder) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	close(r.done)
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	batch := make([]DetectedAttack, 0, r.capacity)

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		out := batch
		batch = make([]DetectedAttack, 0, r.capacity)
		if err := r.store.SaveBatch(ctx, out); err != nil {
			// best-effort telemetry, the batch is gone
			r.tel.Debug("attack batch save failed", "error", err, "count", len(out))
		}
	}

	drain := func() {
		for {
			select {
			case a := <-r.records:
				batch = append(batch, a)
			default:
				return
			}
		}
	}

	for {
		select {
		case a := <-r.records:
			batch = append(batch, a)
			if len(batch) >= r.capacity {
				flush(context.Background())
			}

		case <-ticker.C:
			flush(context.Background())

		case ack := <-r.flushReq:
			drain()
			flush(context.Background())
			close(ack)

		case <-r.done:
			drain()
			ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
			flush(ctx)
			cancel()
			return
		}
	}
}
