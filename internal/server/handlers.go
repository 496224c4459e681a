package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arbelos/pulse/internal/models"
)

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req models.RankingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("rank request",
		zap.Strings("terms", req.Terms),
		zap.Int("page_size", req.PageSize),
		zap.Int("offset", req.Offset))
	response, err := s.engine.Rank(r.Context(), &req)
	if err != nil {
		s.respondRankError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// respondRankError maps pipeline errors onto HTTP statuses: caller input
// faults are 400, an exhausted index store is 503 so the caller may retry,
// and a store speaking the wrong shape is 502.
func (s *Server) respondRankError(w http.ResponseWriter, err error) {
	switch {
	case models.IsInvalidRequest(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case models.IsRetrievalUnavailable(err):
		s.logger.Error("index store unavailable", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case models.IsContractViolation(err):
		s.logger.Error("index store contract violation", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("ranking failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleIngestPost(w http.ResponseWriter, r *http.Request) {
	var input models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ingest post request", zap.String("id", input.ID), zap.String("author", input.Author))
	post, err := s.indexer.IngestPost(r.Context(), &input)
	if err != nil {
		if models.IsInvalidRequest(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": post.ID, "status": "indexed"})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := s.storage.GetPost(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "post not found")
		return
	}
	s.respondJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete post request", zap.String("id", id))
	if err := s.indexer.DeletePost(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	postCount, err := s.storage.CountPosts(r.Context())
	if err != nil {
		s.logger.Error("status: count posts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docs, generation, err := s.engine.Status()
	if err != nil {
		s.logger.Error("status: index status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"posts":      postCount,
		"indexed":    docs,
		"generation": generation,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
