package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/catalog"
	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/llm"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/search"
	"github.com/hyperjump/outfitter/internal/tasks"
)

type matchRequest struct {
	Text      string `json:"text"`
	Role      string `json:"expert_role"`
	SessionID string `json:"session_id"`
	Compose   *bool  `json:"compose,omitempty"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q := models.MatchQuery{Text: req.Text, SessionID: strings.TrimSpace(req.SessionID)}
	if req.Role != "" {
		role, ok := models.ParseExpertRole(req.Role)
		if !ok {
			s.respondError(w, http.StatusBadRequest, "unknown expert_role "+strconv.Quote(req.Role))
			return
		}
		q.Role = role
	}
	if q.SessionID == "" {
		q.SessionID = uuid.NewString()
	}
	s.logger.Debug("match request", zap.String("text", q.Text), zap.String("role", string(q.Role)), zap.String("session_id", q.SessionID))

	result, err := s.deps.Matcher.Match(r.Context(), q)
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		s.logger.Error("match failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "record store unavailable")
		return
	case err != nil:
		s.logger.Error("match failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	compose := s.compose
	if req.Compose != nil {
		compose = *req.Compose
	}
	if compose && s.deps.Composer != nil {
		result.Response = s.deps.Composer.Compose(r.Context(), result, q.Text)
	}
	s.respondJSON(w, http.StatusOK, result)
}

type ingestRequest struct {
	Source      string `json:"source"`
	SourceURL   string `json:"source_url"`
	ImageBase64 string `json:"image_base64"`
	MIMEType    string `json:"mime_type"`
	Hint        string `json:"hint"`
	Force       bool   `json:"force"`
	Async       bool   `json:"async"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	source := req.Source
	if source == "" {
		source = req.SourceURL
	}
	input := ingest.Input{Source: source, MIMEType: req.MIMEType, Hint: req.Hint, Force: req.Force}
	if req.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "image_base64 is not valid base64")
			return
		}
		input.Image = data
	}
	if len(input.Image) == 0 && source != "" && !ingest.IsURL(source) {
		s.respondError(w, http.StatusBadRequest, ingest.ErrLocalSource.Error())
		return
	}

	if req.Async && len(input.Image) == 0 && s.deps.Queue != nil {
		if source == "" {
			s.respondError(w, http.StatusBadRequest, ingest.ErrNoSource.Error())
			return
		}
		taskID, err := s.deps.Queue.EnqueueAnalyze(r.Context(), tasks.AnalyzeOutfitPayload{
			Source: source, MIMEType: req.MIMEType, Hint: req.Hint, Force: req.Force,
		})
		if err != nil {
			s.logger.Error("enqueue analyze failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, "task queue unavailable")
			return
		}
		s.respondJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "status": "queued"})
		return
	}

	s.logger.Debug("ingest request", zap.String("source", source), zap.Bool("force", req.Force), zap.Int("inline_bytes", len(input.Image)))
	out, err := s.deps.Ingester.IngestImage(r.Context(), input)
	switch {
	case errors.Is(err, ingest.ErrNoSource), errors.Is(err, ingest.ErrLocalSource),
		errors.Is(err, ingest.ErrNotImage), errors.Is(err, ingest.ErrImageTooLarge):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, llm.ErrBlocked), errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, models.ErrMalformedRecord):
		s.logger.Warn("image analysis unusable", zap.String("source", source), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.Error("ingest failed", zap.String("source", source), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, out)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.deps.Records.Get(r.Context(), id)
	if err != nil {
		s.respondRecordError(w, id, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete record request", zap.String("record_id", id))
	existed, err := s.deps.Ingester.Remove(r.Context(), id)
	if err != nil {
		s.logger.Error("deletion failed", zap.String("record_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		s.respondError(w, http.StatusNotFound, "record not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) handleUpdateTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.deps.Records.UpdateTags(r.Context(), id, req.Tags)
	if err != nil {
		s.respondRecordError(w, id, err)
		return
	}
	if err := s.deps.Index.AddRecord(r.Context(), rec); err != nil {
		s.logger.Warn("failed to reindex record", zap.String("record_id", id), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if s.deps.Queue != nil {
		taskID, err := s.deps.Queue.EnqueueRebuild(r.Context(), force)
		if err != nil {
			s.logger.Error("enqueue rebuild failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, "task queue unavailable")
			return
		}
		s.respondJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "status": "queued"})
		return
	}
	stats, err := s.deps.Index.RebuildAll(r.Context(), force)
	if err != nil {
		s.logger.Error("rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.deps.Records.Count(ctx)
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	resp := map[string]interface{}{
		"records":        count,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"queue_enabled":  s.deps.Queue != nil,
	}
	if s.storeCfg != "" {
		resp["storage_backend"] = s.storeCfg
	}
	if kinds, indexed, err := s.deps.Index.Stats(ctx); err != nil {
		s.logger.Warn("status: index stats failed", zap.Error(err))
		resp["index"] = map[string]interface{}{"available": false}
	} else {
		keywords := make(map[string]int, len(kinds))
		for k, n := range kinds {
			keywords[string(k)] = n
		}
		resp["index"] = map[string]interface{}{"available": true, "indexed": indexed, "keywords": keywords}
	}
	if s.deps.Disk != nil {
		if n, err := s.deps.Disk.DiskUsage(); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	if s.deps.Watch != nil {
		resp["watch_directories"] = s.deps.Watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondRecordError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		s.respondError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, models.ErrMalformedRecord):
		s.logger.Warn("malformed record", zap.String("record_id", id), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, "record is malformed")
	default:
		s.logger.Error("record request failed", zap.String("record_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
