package relay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
)

// JPEGEncoder encodes frames as baseline JPEG.
type JPEGEncoder struct {
	Quality int
}

// Encode implements Encoder.
func (e JPEGEncoder) Encode(img image.Image) ([]byte, string, error) {
	if img == nil {
		return nil, "", errors.New("encode: nil image")
	}
	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// StillSource repeats a single image on every read. Useful as a fixed
// input frame and for running the relay without a camera.
type StillSource struct {
	path   string
	img    image.Image
	opened bool
}

// NewStillSource loads the image at path when opened.
func NewStillSource(path string) *StillSource {
	return &StillSource{path: path}
}

// NewStillImage serves img directly.
func NewStillImage(img image.Image) *StillSource {
	return &StillSource{img: img}
}

// Open implements Source.
func (s *StillSource) Open() error {
	if s.img == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrSourceUnavailable, s.path, err)
		}
		s.img = img
	}
	s.opened = true
	return nil
}

// Read implements Source.
func (s *StillSource) Read() (*Frame, error) {
	if !s.opened {
		return nil, fmt.Errorf("%w: still source not open", ErrSourceUnavailable)
	}
	return NewFrame(s.img), nil
}

// Close implements Source.
func (s *StillSource) Close() error {
	s.opened = false
	return nil
}
