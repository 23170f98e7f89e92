package assessment

import (
	"errors"

	apperrors "insider-risk-index/internal/common/errors"
	"insider-risk-index/internal/scoring"
)

// Classify maps a ComputeAssessment error onto the service error taxonomy.
func Classify(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	var verr *scoring.ValidationError
	switch {
	case errors.As(err, &verr):
		return apperrors.NewAssessmentValidationError(err).WithMetadata("fields", verr.Fields)
	case errors.Is(err, scoring.ErrUnknownCatalogVersion):
		return apperrors.NewUnknownCatalogVersionError(err)
	case errors.Is(err, scoring.ErrInvalidInput):
		return apperrors.NewScoringInvariantError(err)
	case errors.Is(err, scoring.ErrConfiguration):
		return apperrors.NewCatalogConfigurationError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}
