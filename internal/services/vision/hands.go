package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Skin tone range in OpenCV HSV (H 0-180).
var (
	skinLower = gocv.NewScalar(0, 48, 80, 0)
	skinUpper = gocv.NewScalar(20, 255, 255, 0)
)

// Hands finds skin-coloured regions above the minimum area and draws a
// blue box around each.
func (s *ProcessorService) Hands(data []byte) ([]byte, error) {
	mat, err := decode(data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	boxes, err := s.skinRegions(mat)
	if err != nil {
		return nil, err
	}

	for _, rect := range boxes {
		if err := gocv.Rectangle(&mat, rect, blue, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %w", err)
		}
	}
	if len(boxes) > 0 {
		s.logger.Info("Detected %d hand region(s)", len(boxes))
	}

	return encodePNG(mat)
}

func (s *ProcessorService) skinRegions(mat gocv.Mat) ([]image.Rectangle, error) {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mat, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, fmt.Errorf("failed to convert image to HSV: %w", err)
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, skinLower, skinUpper, &mask)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(7, 7))
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var boxes []image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if gocv.ContourArea(contour) < s.handMinArea {
			continue
		}
		boxes = append(boxes, gocv.BoundingRect(contour))
	}
	return boxes, nil
}
