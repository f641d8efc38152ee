package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	domain "procurement-backend/internal/domain/loa"
	"procurement-backend/internal/usecase/loa"
)

type LOAHandler struct {
	uc  *loa.Resolver
	log logrus.FieldLogger
}

func NewLOAHandler(uc *loa.Resolver, log logrus.FieldLogger) *LOAHandler {
	return &LOAHandler{uc: uc, log: log}
}

type createLOAReq struct {
	SubModuleID uint64           `json:"sub_module_id" validate:"required,gt=0"`
	DivisionID  *uint64          `json:"division_id"   validate:"omitempty,gt=0"`
	Level       int              `json:"level"         validate:"omitempty,gte=1"`
	MinAmount   decimal.Decimal  `json:"min_amount"    validate:"money"`
	MaxAmount   *decimal.Decimal `json:"max_amount"    validate:"omitempty,money"`
	Reviewer1ID *string          `json:"reviewer1_id"  validate:"omitempty,max=64"`
	Reviewer2ID *string          `json:"reviewer2_id"  validate:"omitempty,max=64"`
	Approver1ID string           `json:"approver1_id"  validate:"required,max=64"`
	Approver2ID *string          `json:"approver2_id"  validate:"omitempty,max=64"`
	Approver3ID *string          `json:"approver3_id"  validate:"omitempty,max=64"`
}

func (h *LOAHandler) Create(c echo.Context) error {
	var req createLOAReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	approver1 := req.Approver1ID
	cfg := &domain.ChainConfig{
		SubModuleID: req.SubModuleID,
		DivisionID:  req.DivisionID,
		Level:       req.Level, // 0 lets the resolver pick the next level
		MinAmount:   req.MinAmount,
		MaxAmount:   req.MaxAmount,
		Reviewer1ID: req.Reviewer1ID,
		Reviewer2ID: req.Reviewer2ID,
		Approver1ID: &approver1,
		Approver2ID: req.Approver2ID,
		Approver3ID: req.Approver3ID,
	}
	if err := h.uc.CreateConfig(c.Request().Context(), cfg); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, cfg)
}

// Resolve answers which chain a document of this sub-module and amount would get.
func (h *LOAHandler) Resolve(c echo.Context) error {
	var (
		subModuleID uint64
		divisionID  uint64
		rawAmount   string
	)
	err := echo.QueryParamsBinder(c).
		MustUint64("sub_module_id", &subModuleID).
		Uint64("division_id", &divisionID).
		MustString("amount", &rawAmount).
		BindError()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be a decimal number"})
	}
	var div *uint64
	if c.QueryParam("division_id") != "" {
		div = &divisionID
	}
	chain, err := h.uc.Resolve(c.Request().Context(), subModuleID, div, amount)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"sub_module_id": subModuleID,
		"division_id":   div,
		"amount":        amount,
		"chain":         chain,
	})
}

func (h *LOAHandler) Deactivate(c echo.Context) error {
	var id uint64
	if err := echo.PathParamsBinder(c).MustUint64("id", &id).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be a positive integer"})
	}
	if err := h.uc.DeactivateConfig(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "active": false})
}
