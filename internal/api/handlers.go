package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"insider-risk-index/internal/assessment"
	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/common/validation"
	"insider-risk-index/internal/scoring"
)

func (s *Server) handleComputeAssessment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "could not read request body", nil)
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "request body is not valid JSON", nil)
		return
	}

	result, err := validation.AssessmentSubmission.ValidateJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error(), nil)
		return
	}
	if !result.Valid {
		writeError(w, http.StatusUnprocessableEntity, string(apperrors.ErrCodeAssessmentValidationFailed),
			"assessment submission is invalid", schemaFieldErrors(result))
		return
	}

	var sub assessment.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error(), nil)
		return
	}

	out, err := s.assessments.ComputeAssessment(r.Context(), sub)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeComputeError(w http.ResponseWriter, err error) {
	stdErr := assessment.Classify(err)

	var verr *scoring.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, string(stdErr.Code), stdErr.Message, verr.Fields)
	case stdErr.Code == apperrors.ErrCodeUnknownCatalogVersion:
		writeError(w, http.StatusNotFound, string(stdErr.Code), err.Error(), nil)
	default:
		s.logger.Error("assessment computation failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		writeError(w, http.StatusInternalServerError, string(stdErr.Code), stdErr.Message, nil)
	}
}

func schemaFieldErrors(result *validation.ValidationResult) []scoring.FieldError {
	fields := make([]scoring.FieldError, 0, len(result.Errors))
	for _, e := range result.Errors {
		fields = append(fields, scoring.FieldError{Field: e.Field, Message: e.Message, Code: e.Code})
	}
	return fields
}

type catalogResponse struct {
	Version           string              `json:"version"`
	DefaultVersion    string              `json:"defaultVersion"`
	AvailableVersions []string            `json:"availableVersions"`
	Pillars           []scoring.Pillar    `json:"pillars"`
	Questions         []scoring.Question  `json:"questions"`
	Levels            []scoring.LevelBand `json:"levels"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	engine, err := s.catalogs.Engine(r.URL.Query().Get("version"))
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownCatalogVersion) {
			writeError(w, http.StatusNotFound, string(apperrors.ErrCodeUnknownCatalogVersion), err.Error(), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, string(apperrors.ErrCodeInternal), err.Error(), nil)
		return
	}

	c := engine.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Version:           c.Version,
		DefaultVersion:    s.catalogs.DefaultVersion(),
		AvailableVersions: s.catalogs.Versions(),
		Pillars:           c.Pillars,
		Questions:         c.Questions,
		Levels:            c.Levels,
	})
}
