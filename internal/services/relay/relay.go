// Package relay implements the live frame relay: capture a frame per tick,
// submit it to the processing endpoint when nothing else is in flight, and
// show the returned image.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"sync/atomic"
	"time"

	"devcollab/internal/logger"

	"github.com/google/uuid"
)

const (
	DefaultInterval       = 16 * time.Millisecond
	DefaultRequestTimeout = 5 * time.Second
)

// Option customizes a Relay.
type Option func(*Relay)

// WithEncoder replaces the default JPEG encoder.
func WithEncoder(e Encoder) Option {
	return func(r *Relay) { r.encoder = e }
}

// WithTicker replaces the interval ticker, mostly for tests.
func WithTicker(t Ticker) Option {
	return func(r *Relay) { r.ticker = t }
}

// WithInterval sets the time between capture ticks.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) { r.interval = d }
}

// WithRequestTimeout bounds each submission. A request that never
// answers fails after this long and releases the in-flight guard.
func WithRequestTimeout(d time.Duration) Option {
	return func(r *Relay) { r.requestTimeout = d }
}

// WithObserver registers a status callback. It is called from the run
// loop and, for discarded results, from the submitting goroutine, so it
// must be safe for concurrent use and must not block.
func WithObserver(fn func(Event)) Option {
	return func(r *Relay) { r.observer = fn }
}

type outcome struct {
	seq  uint64
	data []byte
	err  error
}

// session is the state shared between one Run call and its submissions.
type session struct {
	mu      sync.Mutex
	stopped bool
	results chan outcome // capacity 1: at most one request is outstanding
}

// Relay moves frames from a Source through a Processor to a Display.
type Relay struct {
	source    Source
	processor Processor
	display   Display
	encoder   Encoder
	params    Params
	logger    *logger.Logger

	ticker         Ticker
	interval       time.Duration
	requestTimeout time.Duration
	observer       func(Event)

	running atomic.Bool

	// owned by the Run loop
	seq uint64

	// outstanding is set by the loop when it submits and cleared once that
	// request has finished: by the loop when it handles the result, or by
	// the submitting goroutine when the session stopped first. It outlives
	// the session, so a restarted Run waits for a request left over from
	// the previous one.
	outstanding atomic.Bool

	submitted atomic.Uint64
	dropped   atomic.Uint64
	displayed atomic.Uint64
	failed    atomic.Uint64
	discarded atomic.Uint64
}

// New creates a relay. Params are validated up front.
func New(source Source, processor Processor, display Display, params Params, logger *logger.Logger, opts ...Option) (*Relay, error) {
	if source == nil || processor == nil || display == nil {
		return nil, errors.New("relay: source, processor and display are required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	r := &Relay{
		source:         source,
		processor:      processor,
		display:        display,
		encoder:        JPEGEncoder{Quality: 80},
		params:         params,
		logger:         logger,
		interval:       DefaultInterval,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.interval <= 0 {
		return nil, fmt.Errorf("relay: interval must be > 0, got %v", r.interval)
	}
	if r.requestTimeout <= 0 {
		return nil, fmt.Errorf("relay: request timeout must be > 0, got %v", r.requestTimeout)
	}
	return r, nil
}

// Params returns the parameters attached to every request.
func (r *Relay) Params() Params {
	return r.params
}

// Stats returns a snapshot of the relay counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Submitted: r.submitted.Load(),
		Dropped:   r.dropped.Load(),
		Displayed: r.displayed.Load(),
		Failed:    r.failed.Load(),
		Discarded: r.discarded.Load(),
		InFlight:  r.outstanding.Load(),
	}
}

// Run opens the source and relays frames until ctx is done. It returns nil
// on a normal stop and an error wrapping ErrSourceUnavailable when the
// capture source cannot be used.
func (r *Relay) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return errors.New("relay: already running")
	}
	defer r.running.Store(false)

	if err := r.source.Open(); err != nil {
		r.logger.Error("Capture source unavailable: %v", err)
		if errors.Is(err, ErrSourceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() {
		if err := r.source.Close(); err != nil {
			r.logger.Warning("Failed to release capture source: %v", err)
		}
	}()

	ticker := r.ticker
	if ticker == nil {
		ticker = NewTimeTicker(r.interval)
	}
	defer ticker.Stop()

	sess := &session{results: make(chan outcome, 1)}
	defer r.stop(sess)

	r.logger.Info("🎬 Relay started - method %s, params %v", r.params.Method, r.params.Fields())

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C():
			if ctx.Err() != nil {
				return nil
			}
			if err := r.tick(ctx, sess); err != nil {
				return err
			}

		case out := <-sess.results:
			if r.complete(ctx, out) {
				r.logger.Info("Display closed, stopping relay")
				return nil
			}
		}
	}
}

func (r *Relay) tick(ctx context.Context, sess *session) error {
	if r.outstanding.Load() {
		r.dropped.Add(1)
		r.emit(Event{Kind: EventDropped})
		return nil
	}

	frame, err := r.source.Read()
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFrame):
			return nil
		case errors.Is(err, ErrSourceUnavailable):
			r.logger.Error("Capture source lost: %v", err)
			return err
		default:
			r.logger.Warning("Capture read failed: %v", err)
			return nil
		}
	}

	payload, contentType, err := r.encoder.Encode(frame.Image)
	if err != nil {
		r.logger.Warning("Failed to encode frame: %v", err)
		return nil
	}

	r.seq++
	req := &Request{
		ID:          uuid.NewString(),
		Seq:         r.seq,
		Params:      r.params,
		Payload:     payload,
		ContentType: contentType,
		Width:       frame.Width,
		Height:      frame.Height,
	}

	r.outstanding.Store(true)
	r.submitted.Add(1)
	r.emit(Event{Kind: EventSubmitted, Seq: req.Seq})

	go r.submit(ctx, sess, req)
	return nil
}

// submit runs outside the loop. The request context is detached from the
// run context: stopping does not cancel it, the result is dropped instead.
func (r *Relay) submit(ctx context.Context, sess *session, req *Request) {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.requestTimeout)
	defer cancel()

	data, err := r.processor.Process(reqCtx, req)
	out := outcome{seq: req.Seq, data: data, err: err}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.stopped {
		r.discard(out.seq)
		return
	}
	sess.results <- out
}

// complete handles a result on the loop. It reports true when the display
// has been closed and the session should end.
func (r *Relay) complete(ctx context.Context, out outcome) bool {
	r.outstanding.Store(false)

	if ctx.Err() != nil {
		r.discard(out.seq)
		return false
	}

	if out.err != nil {
		r.fail(out.seq, fmt.Errorf("process: %w", out.err))
		return false
	}

	img, _, err := image.Decode(bytes.NewReader(out.data))
	if err != nil {
		r.fail(out.seq, fmt.Errorf("decode result: %w", err))
		return false
	}

	if err := r.display.Show(out.seq, img); err != nil {
		r.fail(out.seq, fmt.Errorf("display: %w", err))
		return errors.Is(err, ErrDisplayClosed)
	}

	r.displayed.Add(1)
	r.emit(Event{Kind: EventDisplayed, Seq: out.seq})
	return false
}

func (r *Relay) fail(seq uint64, err error) {
	r.failed.Add(1)
	r.logger.Warning("Frame #%d failed: %v", seq, err)
	r.emit(Event{Kind: EventFailed, Seq: seq, Err: err})
}

func (r *Relay) discard(seq uint64) {
	r.discarded.Add(1)
	r.outstanding.Store(false)
	r.logger.Info("Frame #%d result discarded after stop", seq)
	r.emit(Event{Kind: EventDiscarded, Seq: seq})
}

// stop marks the session stopped and discards a result that arrived but
// was not handled yet.
func (r *Relay) stop(sess *session) {
	sess.mu.Lock()
	sess.stopped = true
	select {
	case out := <-sess.results:
		r.discard(out.seq)
	default:
	}
	sess.mu.Unlock()

	r.logger.Info("🛑 Relay stopped - %d submitted, %d displayed, %d dropped, %d failed",
		r.submitted.Load(), r.displayed.Load(), r.dropped.Load(), r.failed.Load())
	r.emit(Event{Kind: EventStopped})
}

func (r *Relay) emit(evt Event) {
	if r.observer == nil {
		return
	}
	evt.At = time.Now()
	r.observer(evt)
}
