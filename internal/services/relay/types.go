package relay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"time"
)

var (
	// ErrNoFrame is returned by a Source when no new frame is available yet.
	ErrNoFrame = errors.New("relay: no frame available")
	// ErrSourceUnavailable marks a capture source failure that ends the session.
	ErrSourceUnavailable = errors.New("relay: capture source unavailable")
	// ErrInvalidParams is returned for an unknown method or bad thresholds.
	ErrInvalidParams = errors.New("relay: invalid parameters")
	// ErrDisplayClosed is returned by a Display that can no longer show
	// anything, e.g. a window the user closed. It ends the session.
	ErrDisplayClosed = errors.New("relay: display closed")
)

// Method selects the processing the endpoint applies to a frame.
type Method string

const (
	MethodCanny Method = "canny"
	MethodHands Method = "hands"
	MethodFaces Method = "faces"
)

// Methods lists every supported method.
var Methods = []Method{MethodCanny, MethodHands, MethodFaces}

// ParseMethod maps a method name to a Method.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown method %q", ErrInvalidParams, name)
}

// Params are attached to every processing request.
type Params struct {
	Method Method
	Low    int // canny lower hysteresis threshold
	High   int // canny upper hysteresis threshold
}

// DefaultParams returns canny with thresholds 100/200.
func DefaultParams() Params {
	return Params{Method: MethodCanny, Low: 100, High: 200}
}

// Validate checks the method and, for canny, the thresholds.
func (p Params) Validate() error {
	if _, err := ParseMethod(string(p.Method)); err != nil {
		return err
	}
	if p.Method != MethodCanny {
		return nil
	}
	if p.Low < 0 || p.High < 0 {
		return fmt.Errorf("%w: thresholds must be >= 0 (low=%d, high=%d)", ErrInvalidParams, p.Low, p.High)
	}
	if p.Low > p.High {
		return fmt.Errorf("%w: low (%d) must not exceed high (%d)", ErrInvalidParams, p.Low, p.High)
	}
	return nil
}

// Fields returns the method-specific form fields sent with a request.
func (p Params) Fields() map[string]string {
	if p.Method != MethodCanny {
		return map[string]string{}
	}
	return map[string]string{
		"low":  strconv.Itoa(p.Low),
		"high": strconv.Itoa(p.High),
	}
}

// Frame is one captured raster. It lives for a single tick.
type Frame struct {
	Width      int
	Height     int
	Image      image.Image
	CapturedAt time.Time
}

// NewFrame wraps img as a Frame captured now.
func NewFrame(img image.Image) *Frame {
	b := img.Bounds()
	return &Frame{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Image:      img,
		CapturedAt: time.Now(),
	}
}

// Request is a single encoded frame submitted to the processing endpoint.
type Request struct {
	ID          string
	Seq         uint64
	Params      Params
	Payload     []byte
	ContentType string
	Width       int
	Height      int
}

// Source produces frames. Read returns ErrNoFrame when nothing new is
// ready; any error wrapping ErrSourceUnavailable ends the session.
type Source interface {
	Open() error
	Read() (*Frame, error)
	Close() error
}

// Processor submits a request to the processing endpoint and returns the
// encoded result image.
type Processor interface {
	Process(ctx context.Context, req *Request) ([]byte, error)
}

// Display presents a result, replacing whatever it showed before.
type Display interface {
	Show(seq uint64, img image.Image) error
}

// Encoder turns a frame raster into a request payload.
type Encoder interface {
	Encode(img image.Image) (data []byte, contentType string, err error)
}

// Ticker drives the capture schedule.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker returns a Ticker backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }

// EventKind classifies relay events.
type EventKind string

const (
	EventSubmitted EventKind = "submitted"
	EventDropped   EventKind = "dropped"
	EventDisplayed EventKind = "displayed"
	EventFailed    EventKind = "failed"
	EventDiscarded EventKind = "discarded"
	EventStopped   EventKind = "stopped"
)

// Event is emitted to the observer for status reporting.
type Event struct {
	Kind EventKind `json:"kind"`
	Seq  uint64    `json:"seq,omitempty"`
	Err  error     `json:"-"`
	At   time.Time `json:"at"`
}

// Message returns a short human-readable status line.
func (e Event) Message() string {
	switch e.Kind {
	case EventSubmitted:
		return fmt.Sprintf("frame #%d submitted", e.Seq)
	case EventDropped:
		return "tick skipped: request in flight"
	case EventDisplayed:
		return fmt.Sprintf("frame #%d displayed", e.Seq)
	case EventFailed:
		return fmt.Sprintf("frame #%d failed: %v", e.Seq, e.Err)
	case EventDiscarded:
		return fmt.Sprintf("frame #%d discarded: capture stopped", e.Seq)
	case EventStopped:
		return "capture stopped"
	}
	return string(e.Kind)
}

// Stats are cumulative counters for one relay.
type Stats struct {
	Submitted uint64 `json:"submitted"`
	Dropped   uint64 `json:"dropped"`
	Displayed uint64 `json:"displayed"`
	Failed    uint64 `json:"failed"`
	Discarded uint64 `json:"discarded"`
	InFlight  bool   `json:"in_flight"`
}
