package handlers

import (
	"errors"
	"net/http"

	"devcollab/internal/logger"
	"devcollab/internal/services"
)

const maxCodeForm = 1 << 20

// RunCodeHandler executes the "code" form field and reports the exit code
// and output. A timeout is still a 200 with returncode 124.
func RunCodeHandler(runner services.CodeRunner, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxCodeForm)
		if err := r.ParseMultipartForm(maxCodeForm); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusUnprocessableEntity, "invalid form: "+err.Error(), logger)
			return
		}

		values, ok := r.PostForm["code"]
		if !ok || len(values) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "field required: code", logger)
			return
		}

		result, err := runner.Run(r.Context(), values[0])
		if err != nil {
			logger.Error("Failed to run snippet: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to run code", logger)
			return
		}
		writeJSON(w, http.StatusOK, result, logger)
	}
}
