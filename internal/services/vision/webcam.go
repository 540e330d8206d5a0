package vision

import (
	"fmt"
	"strconv"
	"sync"

	"devcollab/internal/services/relay"

	"gocv.io/x/gocv"
)

// Webcam is a relay.Source backed by an OpenCV VideoCapture. Device is a
// camera index ("0") or a file/stream URL.
type Webcam struct {
	Device string

	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
}

// NewWebcam creates a webcam source. Nothing is opened until Open.
func NewWebcam(device string) *Webcam {
	return &Webcam{Device: device}
}

func (w *Webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var device interface{} = w.Device
	if id, err := strconv.Atoi(w.Device); err == nil {
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return fmt.Errorf("%w: open %q: %v", relay.ErrSourceUnavailable, w.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %q not opened", relay.ErrSourceUnavailable, w.Device)
	}

	w.capture = capture
	w.frame = gocv.NewMat()
	return nil
}

func (w *Webcam) Read() (*relay.Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return nil, fmt.Errorf("%w: not open", relay.ErrSourceUnavailable)
	}
	if ok := w.capture.Read(&w.frame); !ok {
		if !w.capture.IsOpened() {
			return nil, fmt.Errorf("%w: device %q closed", relay.ErrSourceUnavailable, w.Device)
		}
		return nil, relay.ErrNoFrame
	}
	if w.frame.Empty() {
		return nil, relay.ErrNoFrame
	}

	img, err := w.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return relay.NewFrame(img), nil
}

func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return nil
	}
	w.frame.Close()
	err := w.capture.Close()
	w.capture = nil
	return err
}
