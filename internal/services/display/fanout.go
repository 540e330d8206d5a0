package display

import (
	"errors"
	"image"

	"devcollab/internal/services/relay"
)

// Fanout shows each result on every wrapped display. All displays are
// tried; their errors are joined.
type Fanout []relay.Display

func (f Fanout) Show(seq uint64, img image.Image) error {
	var errs []error
	for _, d := range f {
		if err := d.Show(seq, img); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
