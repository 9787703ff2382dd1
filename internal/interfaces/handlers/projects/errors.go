package projects

import (
	"errors"

	projectsvc "liyantis-backend/internal/application/projects"
	"liyantis-backend/internal/application/reports"
	"liyantis-backend/internal/finance"
	"liyantis-backend/internal/middleware"
	"liyantis-backend/internal/pkg/response"
	"liyantis-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors to the standard envelope. Anything unknown
// goes to the global error handler as a 500.
func respondError(c *fiber.Ctx, err error) error {
	var fields validation.FieldErrors
	switch {
	case errors.As(err, &fields):
		return response.ValidationFailed(c, fields, nil)
	case errors.Is(err, middleware.ErrNoAgent):
		return response.Unauthorized(c, "Unauthorized")
	case errors.Is(err, projectsvc.ErrProjectNotFound),
		errors.Is(err, projectsvc.ErrNoDraft),
		errors.Is(err, finance.ErrInstallmentNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, projectsvc.ErrInvalidProjectID),
		errors.Is(err, projectsvc.ErrInvalidFilter),
		errors.Is(err, projectsvc.ErrInvalidSort),
		errors.Is(err, projectsvc.ErrNothingToUpdate):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, finance.ErrInvalidArea),
		errors.Is(err, finance.ErrNonFiniteInput),
		errors.Is(err, finance.ErrDownPaymentPosition),
		errors.Is(err, finance.ErrDownPaymentPinned),
		errors.Is(err, finance.ErrInvalidStage):
		return response.Error(c, err.Error(), fiber.StatusUnprocessableEntity, nil)
	case errors.Is(err, reports.ErrStorageNotConfigured):
		return response.Error(c, "Report sharing is not available", fiber.StatusServiceUnavailable, nil)
	default:
		return err
	}
}
