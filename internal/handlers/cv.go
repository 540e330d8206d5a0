package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"devcollab/internal/config"
	"devcollab/internal/logger"
	"devcollab/internal/models"
	"devcollab/internal/services"
	"devcollab/internal/services/relay"
)

// RunCVHandler serves POST /api/run/cv/{method}. The upload is the
// multipart "file" part; canny also reads the optional low/high fields.
func RunCVHandler(processor services.CVProcessor, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method, err := relay.ParseMethod(r.PathValue("method"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error(), logger)
			return
		}

		maxBytes := cfg.MaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxBytes), logger)
				return
			}
			writeError(w, http.StatusUnprocessableEntity, "expected multipart form: "+err.Error(), logger)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "field required: file", logger)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read upload", logger)
			return
		}

		var result []byte
		switch method {
		case relay.MethodCanny:
			defaults := relay.DefaultParams()
			var low, high int
			if low, err = formInt(r, "low", defaults.Low); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error(), logger)
				return
			}
			if high, err = formInt(r, "high", defaults.High); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error(), logger)
				return
			}
			result, err = processor.Canny(data, low, high)
		case relay.MethodHands:
			result, err = processor.Hands(data)
		case relay.MethodFaces:
			result, err = processor.Faces(data)
		}

		if err != nil {
			if errors.Is(err, models.ErrInvalidImage) {
				writeError(w, http.StatusBadRequest, err.Error(), logger)
				return
			}
			logger.Error("CV %s failed (request %s): %v", method, r.Header.Get("X-Request-ID"), err)
			writeError(w, http.StatusInternalServerError, "processing failed", logger)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(result)))
		w.Write(result)
	}
}

func formInt(r *http.Request, name string, def int) (int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
