package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/prima/internal/analyzer"
	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/engine"
	"github.com/leapstack-labs/prima/internal/storage"
)

const maxRecipeBytes = 1 << 20

func (s *Server) routes(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/upload/{session_id}", s.handleUpload)
		r.Get("/analyze/{session_id}", s.handleAnalyze)
		r.Get("/options", s.handleOptions)
		r.Post("/preview", s.handlePreview)
		r.Post("/generate-code", s.handleGenerateCode)
		r.Get("/sessions/{session_id}/runs", s.handleRuns)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "active",
		"system": "Prima Backend v1",
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	part, err := filePart(r)
	if err != nil {
		s.writeError(w, uploadStatus(err), uploadMessage(err))
		return
	}
	defer func() { _ = part.Close() }()

	res, err := s.engine.Upload(r.Context(), chi.URLParam(r, "session_id"), part.FileName(), part)
	if err != nil {
		s.logger.Info("upload rejected", "error", err)
		s.writeError(w, uploadStatus(err), uploadMessage(err))
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

var errNoFile = errors.New("no file uploaded")

// filePart streams the multipart field named "file" without buffering the
// whole body.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errNoFile
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile),
		errors.Is(err, storage.ErrNotCSV),
		errors.Is(err, storage.ErrInvalidSession),
		errors.Is(err, storage.ErrInvalidCSV):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func uploadMessage(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "File too large."
	case errors.Is(err, errNoFile):
		return "No file uploaded."
	case errors.Is(err, storage.ErrNotCSV):
		return "Only CSV files are allowed."
	case errors.Is(err, storage.ErrInvalidSession):
		return "Invalid session id."
	case errors.Is(err, storage.ErrInvalidCSV):
		return err.Error()
	}
	return "Could not save file."
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Analyze(r.Context(), chi.URLParam(r, "session_id"))
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, "Session not found or file missing.")
	case errors.Is(err, analyzer.ErrUnreadable):
		s.writeError(w, http.StatusInternalServerError, "Could not read sample file.")
	case err != nil:
		s.logger.Error("analysis failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Analysis failed.")
	default:
		s.writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]catalog.Operation{
		"operations": s.engine.Options(),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecipeBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Could not read request body.")
		return
	}
	rec, err := s.decodeRecipe(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.engine.Preview(r.Context(), rec)
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, "Session expired or not found.")
	case errors.Is(err, engine.ErrUnreadableSample):
		s.writeError(w, http.StatusInternalServerError, "Could not read sample file.")
	case errors.Is(err, engine.ErrTimeout):
		s.writeError(w, http.StatusGatewayTimeout, "Preview timed out.")
	case err != nil:
		s.logger.Error("preview failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Preview failed.")
	default:
		s.writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecipeBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Could not read request body.")
		return
	}
	rec, err := s.decodeRecipe(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Export(rec))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer.")
			return
		}
		limit = n
	}

	runs, err := s.engine.Runs(r.Context(), chi.URLParam(r, "session_id"), limit)
	if err != nil {
		s.logger.Error("listing runs failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Could not list runs.")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

// writeError writes a {"detail": msg} body.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"detail": msg})
}
