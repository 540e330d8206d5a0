// Package vision runs the OpenCV routines behind the /api/run/cv routes and
// provides the webcam source and window display used by the relay.
package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"devcollab/internal/config"
	"devcollab/internal/logger"
	"devcollab/internal/models"

	"gocv.io/x/gocv"
)

var (
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

// ProcessorService runs edge, face and hand detection on encoded images
// and returns PNG results.
type ProcessorService struct {
	cascade       gocv.CascadeClassifier
	cascadeLoaded bool
	cascadeMu     sync.Mutex // CascadeClassifier nie jest bezpieczny dla wielu wątków
	handMinArea   float64
	logger        *logger.Logger
}

// NewProcessorService loads the face cascade. A missing cascade is logged
// and only disables the faces route.
func NewProcessorService(config *config.Config, logger *logger.Logger) *ProcessorService {
	service := &ProcessorService{
		cascade:     gocv.NewCascadeClassifier(),
		handMinArea: float64(config.HandMinArea),
		logger:      logger,
	}

	if err := service.loadCascade(config.FaceCascadePath); err != nil {
		service.logger.Warning("Face detection disabled: %v", err)
		return service
	}
	return service
}

func (s *ProcessorService) loadCascade(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("cascade file not found: %s", path)
	}
	if !s.cascade.Load(path) {
		return fmt.Errorf("failed to load cascade: %s", path)
	}
	s.cascadeLoaded = true
	s.logger.Info("Face cascade loaded from %s", path)
	return nil
}

// Close releases the cascade.
func (s *ProcessorService) Close() error {
	return s.cascade.Close()
}

// Canny returns the edge map of the image as a three-channel PNG.
func (s *ProcessorService) Canny(data []byte, low, high int) ([]byte, error) {
	mat, err := decode(data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert image to grayscale: %w", err)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(low), float32(high))

	out := gocv.NewMat()
	defer out.Close()
	if err := gocv.CvtColor(edges, &out, gocv.ColorGrayToBGR); err != nil {
		return nil, fmt.Errorf("failed to convert edges to BGR: %w", err)
	}

	return encodePNG(out)
}

// Faces draws a green box around every detected face.
func (s *ProcessorService) Faces(data []byte) ([]byte, error) {
	if !s.cascadeLoaded {
		return nil, errors.New("face cascade not loaded")
	}

	mat, err := decode(data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert image to grayscale: %w", err)
	}
	gocv.EqualizeHist(gray, &gray)

	s.cascadeMu.Lock()
	faces := s.cascade.DetectMultiScaleWithParams(gray, 1.1, 5, 0, image.Pt(30, 30), image.Pt(0, 0))
	s.cascadeMu.Unlock()

	for _, rect := range faces {
		if err := gocv.Rectangle(&mat, rect, green, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %w", err)
		}
	}
	if len(faces) > 0 {
		s.logger.Info("Detected %d face(s)", len(faces))
	}

	return encodePNG(mat)
}

// decode returns a BGR Mat the caller must close. On error nothing needs closing.
func decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.Mat{}, models.ErrInvalidImage
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, models.ErrInvalidImage
	}
	return mat, nil
}

func encodePNG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	defer buf.Close()

	// GetBytes points into C memory released by Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}
