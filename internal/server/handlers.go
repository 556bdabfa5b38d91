package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperjump/extractify/internal/export"
	"github.com/hyperjump/extractify/internal/extract"
	"github.com/hyperjump/extractify/internal/fileid"
	"github.com/hyperjump/extractify/internal/metrics"
	"github.com/hyperjump/extractify/internal/models"
	"go.uber.org/zap"
)

// uploadField is the multipart form field carrying the workbook.
const uploadField = "file"

var errNoFile = errors.New("file is required")

type upload struct {
	name    string
	content []byte
}

// readUpload reads the workbook from a multipart "file" field, or from the raw body with
// the name taken from ?name=.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	limit := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(limit); err != nil {
			return nil, err
		}
		f, hdr, err := r.FormFile(uploadField)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return nil, errNoFile
			}
			return nil, err
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return &upload{name: filepath.Base(hdr.Filename), content: content}, nil
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, errNoFile
	}
	name := r.URL.Query().Get("name")
	if name != "" {
		name = filepath.Base(name)
	}
	return &upload{name: name, content: content}, nil
}

// extractUpload reads the upload and extracts it. On failure it has already written the
// error response and returns ok=false.
func (s *Server) extractUpload(w http.ResponseWriter, r *http.Request) (*upload, []models.ExtractedItem, string, bool) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondUploadError(w, err)
		return nil, nil, "", false
	}
	id := uuid.New().String()
	start := time.Now()
	items, err := s.extractor.Extract(up.content)
	metrics.ObserveExtract(start, metrics.ExtractResult(err), len(items))
	if err != nil {
		s.logger.Info("extraction failed",
			zap.String("id", id),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("file", up.name),
			zap.Error(err))
		s.respondParseError(w, err)
		return nil, nil, "", false
	}
	s.logger.Debug("extraction done",
		zap.String("id", id),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("file", up.name),
		zap.Int("items", len(items)))
	return up, items, id, true
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	up, items, id, ok := s.extractUpload(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, &models.ExtractResponse{
		ID:        id,
		FileName:  up.name,
		Format:    string(extract.Detect(up.content)),
		ContentID: fileid.ContentID(up.content),
		Count:     len(items),
		Items:     items,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	up, items, _, ok := s.extractUpload(w, r)
	if !ok {
		return
	}
	if len(items) == 0 {
		s.respondError(w, http.StatusUnprocessableEntity, export.ErrNothingToExport.Error())
		return
	}
	data, err := export.Marshal(items)
	if err != nil {
		s.logger.Error("export marshal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(up.name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, errNoFile):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.respondError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
	}
}

// respondParseError maps extraction failures to 422 with the failure kind.
func (s *Server) respondParseError(w http.ResponseWriter, err error) {
	var pe *extract.ParseError
	if !errors.As(err, &pe) {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"error": pe.Error(),
		"kind":  string(pe.Kind),
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
