package vision

import (
	"fmt"
	"image"

	"devcollab/internal/services/relay"

	"gocv.io/x/gocv"
)

// ErrWindowClosed is returned by Show after the user closed the window.
// It wraps relay.ErrDisplayClosed, so the relay stops.
var ErrWindowClosed = fmt.Errorf("vision: window closed: %w", relay.ErrDisplayClosed)

// Window shows relay results in an OpenCV HighGUI window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

func (w *Window) Show(seq uint64, img image.Image) error {
	if !w.window.IsOpen() {
		return ErrWindowClosed
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("convert frame #%d: %w", seq, err)
	}
	defer mat.Close()

	w.window.IMShow(mat)
	w.window.WaitKey(1)
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
