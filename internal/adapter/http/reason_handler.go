package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"procurement-backend/internal/usecase/reason"
)

type ReasonHandler struct {
	uc  *reason.Usecase
	log logrus.FieldLogger
}

func NewReasonHandler(uc *reason.Usecase, log logrus.FieldLogger) *ReasonHandler {
	return &ReasonHandler{uc: uc, log: log}
}

type createReasonReq struct {
	Label string `json:"label" validate:"required,max=255"`
}

func (h *ReasonHandler) Create(c echo.Context) error {
	var req createReasonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	r, err := h.uc.Create(c.Request().Context(), req.Label)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, r)
}
