package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"procurement-backend/internal/domain/budget"
	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/loa"
	"procurement-backend/internal/domain/purchasing"
	"procurement-backend/internal/domain/reason"
	"procurement-backend/internal/domain/routing"
	"procurement-backend/internal/usecase/apperr"
)

const msgInternal = "Something went wrong"

// statusFor maps domain errors → HTTP codes and the message shown to callers.
func statusFor(err error) (int, string) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Error()
	case errors.Is(err, document.ErrNotFound), errors.Is(err, purchasing.ErrNotFound), errors.Is(err, reason.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, loa.ErrBandNotFound):
		return http.StatusNotFound, loa.ErrBandNotFound.Error()
	case errors.Is(err, loa.ErrConfigurationNotFound):
		return http.StatusNotFound, "no approval chain configured for this amount"
	case errors.Is(err, routing.ErrNotCurrentActor):
		return http.StatusForbidden, routing.ErrNotCurrentActor.Error()
	case errors.Is(err, routing.ErrAlreadyFinalized):
		return http.StatusConflict, routing.ErrAlreadyFinalized.Error()
	case errors.Is(err, routing.ErrConcurrentModification):
		return http.StatusConflict, routing.ErrConcurrentModification.Error()
	case errors.Is(err, document.ErrNotSubmitted):
		return http.StatusConflict, document.ErrNotSubmitted.Error()
	case errors.Is(err, document.ErrNotDraft):
		return http.StatusConflict, document.ErrNotDraft.Error()
	case errors.Is(err, budget.ErrInsufficientBudget):
		return http.StatusUnprocessableEntity, budget.ErrInsufficientBudget.Error()
	}
	return http.StatusInternalServerError, msgInternal
}

func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
