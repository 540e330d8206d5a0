package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"devcollab/internal/logger"
	"devcollab/internal/models"
	"devcollab/internal/repository"
)

const maxSnippetBody = 1 << 20

type createSnippetRequest struct {
	Title    *string  `json:"title"`
	Language string   `json:"language"`
	Code     *string  `json:"code"`
	Tags     []string `json:"tags"`
}

// ListSnippetsHandler returns snippets newest first. Optional query
// parameters: language, tag, limit, offset.
func ListSnippetsHandler(repo repository.SnippetRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := &models.SnippetFilter{
			Language: query.Get("language"),
			Tag:      query.Get("tag"),
			Limit:    atoiDefault(query.Get("limit"), 0),
			Offset:   atoiDefault(query.Get("offset"), 0),
		}

		snippets, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Failed to list snippets: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list snippets", logger)
			return
		}
		writeJSON(w, http.StatusOK, snippets, logger)
	}
}

func CreateSnippetHandler(repo repository.SnippetRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSnippetRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnippetBody)).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error(), logger)
			return
		}
		if req.Title == nil {
			writeError(w, http.StatusUnprocessableEntity, "field required: title", logger)
			return
		}
		if req.Code == nil {
			writeError(w, http.StatusUnprocessableEntity, "field required: code", logger)
			return
		}

		snippet := models.NewSnippet(*req.Title, req.Language, *req.Code, req.Tags)
		if err := repo.Insert(snippet); err != nil {
			logger.Error("Failed to save snippet: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to save snippet", logger)
			return
		}

		logger.Info("📝 Snippet %s created (%s)", snippet.ID, snippet.Language)
		writeJSON(w, http.StatusOK, snippet, logger)
	}
}

func GetSnippetHandler(repo repository.SnippetRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snippet, err := repo.GetByID(r.PathValue("id"))
		if err != nil {
			logger.Error("Failed to get snippet: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to get snippet", logger)
			return
		}
		if snippet == nil {
			writeError(w, http.StatusNotFound, "snippet not found", logger)
			return
		}
		writeJSON(w, http.StatusOK, snippet, logger)
	}
}

func DeleteSnippetHandler(repo repository.SnippetRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		snippet, err := repo.GetByID(id)
		if err != nil {
			logger.Error("Failed to get snippet: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to delete snippet", logger)
			return
		}
		if snippet == nil {
			writeError(w, http.StatusNotFound, "snippet not found", logger)
			return
		}

		if err := repo.Delete(id); err != nil {
			logger.Error("Failed to delete snippet %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "failed to delete snippet", logger)
			return
		}
		logger.Info("🗑️  Snippet %s deleted", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// atoiDefault parses a positive integer, falling back to def.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
