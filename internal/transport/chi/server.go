// Package chi exposes the HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/domain/job"
	cataloguc "github.com/studyvault-app/studyvault/internal/usecase/catalog"
	chatuc "github.com/studyvault-app/studyvault/internal/usecase/chat"
	healthuc "github.com/studyvault-app/studyvault/internal/usecase/health"
	ingestuc "github.com/studyvault-app/studyvault/internal/usecase/ingest"
	notesuc "github.com/studyvault-app/studyvault/internal/usecase/notes"
)

// maxUploadBytes bounds multipart uploads (50 MiB).
const maxUploadBytes = 50 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecases into chi handlers.
type Server struct {
	notes         *notesuc.Service
	ingest        *ingestuc.Service
	chat          *chatuc.Service
	catalog       *cataloguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	notes *notesuc.Service,
	ingest *ingestuc.Service,
	chat *chatuc.Service,
	catalog *cataloguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		notes:   notes,
		ingest:  ingest,
		chat:    chat,
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrJobNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrResultNotReady, http.StatusNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrQueueFull, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway),
	}
	return s
}

// Mount registers all API routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/notes", s.handleCreateNotes)
		r.Get("/notes/{id}", s.handleGetNotes)
		r.Get("/notes/{id}/download", s.handleDownloadNotes)
		r.Post("/resources", s.handleUploadResource)
		r.Delete("/resources/{id}", s.handleDeleteResource)
		r.Post("/chat", s.handleChat)
		r.Post("/subjects", s.handleCreateSubject)
		r.Get("/subjects", s.handleListSubjects)
		r.Post("/subjects/{id}/topics", s.handleCreateTopic)
		r.Get("/subjects/{id}/topics", s.handleListTopics)
		r.Get("/topics/{id}/chat", s.handleChatHistory)
		r.Post("/topics/{id}/progress", s.handleRecordProgress)
		r.Get("/topics/{id}/progress", s.handleGetProgress)
	})
	r.Get("/health", s.handleHealth)
}

// handleCreateNotes handles POST /api/notes.
func (s *Server) handleCreateNotes(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	j, err := s.notes.Submit(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"job_id": j.ID,
		"status": string(j.Status),
	})
}

// handleGetNotes handles GET /api/notes/{id}.
func (s *Server) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	j, err := s.notes.Status(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	switch j.Status {
	case job.StatusDone:
		doc, err := s.notes.Result(r.Context(), id)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": j.Status,
			"notes":  doc,
		})
	case job.StatusError:
		writeJSON(w, http.StatusOK, map[string]any{
			"status": j.Status,
			"error":  j.Error,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": j.Status})
	}
}

// handleDownloadNotes handles GET /api/notes/{id}/download. Streams the
// persisted result file.
func (s *Server) handleDownloadNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	j, err := s.notes.Status(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if j.Status != job.StatusDone {
		s.handleDomainError(w, domain.ErrResultNotReady)
		return
	}

	f, err := os.Open(j.ResultPath)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="notes-`+id+`.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}

// handleUploadResource handles POST /api/resources.
func (s *Server) handleUploadResource(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	topicID := r.FormValue("topic_id")
	title := r.FormValue("title")
	if topicID == "" || title == "" {
		writeError(w, http.StatusBadRequest, "topic_id and title are required")
		return
	}
	sourceType, err := chunk.ParseSourceType(r.FormValue("source_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.ingest.Upload(r.Context(), ingestuc.UploadInput{
		TopicID:    topicID,
		Title:      title,
		SourceType: sourceType,
		Filename:   header.Filename,
		MIMEType:   header.Header.Get("Content-Type"),
		Data:       file,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// handleDeleteResource handles DELETE /api/resources/{id}.
func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	TopicID   string `json:"topic_id"`
	TopicName string `json:"topic_name"`
	Message   string `json:"message"`
	ChatType  string `json:"chat_type"`
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	chatType, err := chatuc.ParseType(req.ChatType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := s.chat.Ask(r.Context(), chatuc.AskInput{
		UserID:    req.UserID,
		TopicID:   req.TopicID,
		TopicName: req.TopicName,
		Message:   req.Message,
		ChatType:  chatType,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// handleChatHistory handles GET /api/topics/{id}/chat.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	msgs, err := s.chat.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type createSubjectRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// handleCreateSubject handles POST /api/subjects.
func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	subject, err := s.catalog.CreateSubject(r.Context(), req.UserID, req.Name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

// handleListSubjects handles GET /api/subjects.
func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.catalog.ListSubjects(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

type createTopicRequest struct {
	Name string `json:"name"`
}

// handleCreateTopic handles POST /api/subjects/{id}/topics.
func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	topic, err := s.catalog.CreateTopic(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

// handleListTopics handles GET /api/subjects/{id}/topics.
func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.catalog.ListTopics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

type recordProgressRequest struct {
	UserID string `json:"user_id"`
}

// handleRecordProgress handles POST /api/topics/{id}/progress.
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req recordProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	snap, err := s.catalog.RecordProgress(r.Context(), req.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// handleGetProgress handles GET /api/topics/{id}/progress.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health.Check(r.Context()))
}

// formFile reads one multipart file fully into memory.
func (s *Server) formFile(r *http.Request, field string) ([]byte, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, err
	}
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, nil, err
	}
	return data, header, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrJobNotFound,
		domain.ErrResultNotReady,
		domain.ErrNotFound,
		domain.ErrQueueFull,
		domain.ErrVectorDimMismatch,
		domain.ErrLLMProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
