// Package journal records camera motions into the database as an audit
// trail of a viewer session.
//
// Architecture:
//
//	Sequencer listener → Record → buffered channel → flushLoop → Store
//
// Record never blocks the render loop. When the buffer is full the event
// is dropped and counted. The flush loop commits every BatchSize events or
// every FlushInterval, whichever comes first.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/database"
	"github.com/Mr-Dark-debug/terra/internal/motion"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ErrNotStarted is returned by Stop when Start was never called.
var ErrNotStarted = errors.New("journal not started")

// Journal defines the recorder lifecycle.
type Journal interface {
	// Start opens the session and begins the flush loop.
	Start(ctx context.Context) error
	// Record queues a motion event. It never blocks.
	Record(ev motion.Event)
	// Stop flushes buffered events and closes the session.
	Stop() error
	// Metrics returns the current recorder counters.
	Metrics() Metrics
}

// Metrics tracks recorder throughput and loss.
type Metrics struct {
	EventsRecorded   int64 `json:"events_recorded"`
	EventsDropped    int64 `json:"events_dropped"`
	ErrorCount       int64 `json:"error_count"`
	BatchesCommitted int64 `json:"batches_committed"`
	Uptime           int64 `json:"uptime_seconds"`
}

// Config holds recorder settings.
type Config struct {
	// BatchSize is the number of events that triggers a flush. The event
	// buffer holds twice as many.
	BatchSize int
	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
	// Metadata is stored with the session row.
	Metadata map[string]string
}

// DefaultConfig returns the recorder defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     64,
		FlushInterval: 2 * time.Second,
	}
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock sets the clock used for session timestamps and the flush ticker.
func WithClock(c clockwork.Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(r *Recorder) { r.sessionID = id }
}

// Recorder is the production implementation of Journal.
type Recorder struct {
	config Config
	store  database.Store
	log    zerolog.Logger
	clock  clockwork.Clock

	sessionID string
	started   time.Time
	frames    atomic.Int64

	metrics Metrics

	events chan motion.Event
	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(config Config, store database.Store, log zerolog.Logger, opts ...Option) *Recorder {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultConfig().FlushInterval
	}
	r := &Recorder{
		config:    config,
		store:     store,
		log:       log,
		clock:     clockwork.NewRealClock(),
		sessionID: uuid.NewString(),
		events:    make(chan motion.Event, config.BatchSize*2),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the id of the session being recorded.
func (r *Recorder) SessionID() string { return r.sessionID }

// SetFrames sets the frame count stored when the session ends.
func (r *Recorder) SetFrames(n int64) { r.frames.Store(n) }

// Start inserts the session row and starts the flush goroutine.
func (r *Recorder) Start(ctx context.Context) error {
	r.started = r.clock.Now()

	err := r.store.InsertSession(&database.Session{
		SessionID: r.sessionID,
		StartTime: r.started.UnixNano(),
		Metadata:  r.config.Metadata,
	})
	if err != nil {
		return fmt.Errorf("opening session %s: %w", r.sessionID, err)
	}

	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.flushLoop(ctx)

	r.log.Info().Str("session", r.sessionID).Msg("Journal started")
	return nil
}

// Record queues ev for the next flush. Events arriving after Stop, or while
// the buffer is full, are dropped.
func (r *Recorder) Record(ev motion.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		atomic.AddInt64(&r.metrics.EventsDropped, 1)
		return
	}
	select {
	case r.events <- ev:
		atomic.AddInt64(&r.metrics.EventsRecorded, 1)
	default:
		atomic.AddInt64(&r.metrics.EventsDropped, 1)
	}
}

// Stop drains the buffer, writes the remaining events and records the
// session end time and frame count.
func (r *Recorder) Stop() error {
	if r.cancel == nil {
		return ErrNotStarted
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()

	r.wg.Wait()
	r.cancel()

	end := r.clock.Now().UnixNano()
	err := r.store.InsertSession(&database.Session{
		SessionID: r.sessionID,
		StartTime: r.started.UnixNano(),
		EndTime:   &end,
		Frames:    r.frames.Load(),
	})
	if err != nil {
		atomic.AddInt64(&r.metrics.ErrorCount, 1)
		return fmt.Errorf("closing session %s: %w", r.sessionID, err)
	}

	m := r.Metrics()
	r.log.Info().
		Str("session", r.sessionID).
		Int64("recorded", m.EventsRecorded).
		Int64("dropped", m.EventsDropped).
		Int64("batches", m.BatchesCommitted).
		Msg("Journal stopped")
	return nil
}

// Metrics returns a snapshot of the recorder counters.
func (r *Recorder) Metrics() Metrics {
	var uptime int64
	if !r.started.IsZero() {
		uptime = int64(r.clock.Since(r.started).Seconds())
	}
	return Metrics{
		EventsRecorded:   atomic.LoadInt64(&r.metrics.EventsRecorded),
		EventsDropped:    atomic.LoadInt64(&r.metrics.EventsDropped),
		ErrorCount:       atomic.LoadInt64(&r.metrics.ErrorCount),
		BatchesCommitted: atomic.LoadInt64(&r.metrics.BatchesCommitted),
		Uptime:           uptime,
	}
}

// flushLoop drains the event channel into batches. It exits once the
// channel is closed and the final batch is written.
func (r *Recorder) flushLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()

	buf := make([]*database.Motion, 0, r.config.BatchSize)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		if err := r.store.BatchInsertMotions(buf); err != nil {
			r.log.Error().Err(err).Int("motions", len(buf)).Msg("Flushing motion batch")
			atomic.AddInt64(&r.metrics.ErrorCount, 1)
		} else {
			atomic.AddInt64(&r.metrics.BatchesCommitted, 1)
		}
		buf = buf[:0]
	}

	for {
		select {
		case ev, ok := <-r.events:
			if !ok {
				flush()
				return
			}
			buf = append(buf, r.toRow(ev))
			if len(buf) >= r.config.BatchSize {
				flush()
			}

		case <-ticker.Chan():
			flush()

		case <-ctx.Done():
			// Stop closes the channel before cancelling; a parent
			// cancellation still drains what is already queued.
			for {
				select {
				case ev, ok := <-r.events:
					if !ok {
						flush()
						return
					}
					buf = append(buf, r.toRow(ev))
				default:
					flush()
					return
				}
			}
		}
	}
}

func (r *Recorder) toRow(ev motion.Event) *database.Motion {
	row := &database.Motion{
		SessionID:  r.sessionID,
		MotionID:   int64(ev.MotionID),
		Kind:       ev.Kind.String(),
		Outcome:    ev.Outcome.String(),
		From:       vec(ev.From.Position.X, ev.From.Position.Y, ev.From.Position.Z),
		To:         vec(ev.To.Position.X, ev.To.Position.Y, ev.To.Position.Z),
		StartTime:  ev.Started.UnixNano(),
		DurationMs: ev.Duration.Milliseconds(),
		Frames:     ev.Frames,
	}
	if !ev.Finished.IsZero() {
		end := ev.Finished.UnixNano()
		row.EndTime = &end
	}
	return row
}

func vec(x, y, z float64) database.Vec3 {
	return database.Vec3{X: x, Y: y, Z: z}
}
