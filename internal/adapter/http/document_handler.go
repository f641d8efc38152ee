package http

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/history"
	"procurement-backend/internal/domain/routing"
	"procurement-backend/internal/usecase/workflow"
)

type DocumentHandler struct {
	uc  *workflow.Usecase
	log logrus.FieldLogger
}

func NewDocumentHandler(uc *workflow.Usecase, log logrus.FieldLogger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

type createDocumentReq struct {
	Type             string          `json:"type"                validate:"required,doctype"`
	DivisionID       *uint64         `json:"division_id"         validate:"omitempty,gt=0"`
	Amount           decimal.Decimal `json:"amount"              validate:"money"`
	Priority         int             `json:"priority"            validate:"omitempty,gte=1,lte=4"`
	ChartOfAccountID *uint64         `json:"chart_of_account_id" validate:"omitempty,gt=0"`
	BudgetYear       int             `json:"budget_year"         validate:"omitempty,gte=2000,lte=9999"`
	BudgetMonth      int             `json:"budget_month"        validate:"omitempty,gte=1,lte=12"`
	PurchasingID     string          `json:"purchasing_id"       validate:"omitempty,hex32"`
	Draft            bool            `json:"draft"`
	Remarks          string          `json:"remarks"             validate:"max=2000"`
	Payload          json.RawMessage `json:"payload"`
}

type decisionReq struct {
	Decision string           `json:"decision"  validate:"required,oneof=approve decline"`
	ReasonID *uint64          `json:"reason_id" validate:"required_if=Decision decline"`
	Amount   *decimal.Decimal `json:"amount"    validate:"omitempty,money"`
	Remarks  string           `json:"remarks"   validate:"max=2000"`
}

type refParam struct {
	ReferenceNo string `validate:"required,refcode"`
}

func (h *DocumentHandler) reference(c echo.Context) (string, error) {
	ref := c.Param("reference_no")
	if err := c.Validate(&refParam{ReferenceNo: ref}); err != nil {
		return "", err
	}
	return ref, nil
}

func (h *DocumentHandler) Create(c echo.Context) error {
	actor, ok := requireUser(c)
	if !ok {
		return missingUser(c)
	}
	var req createDocumentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Create(c.Request().Context(), workflow.CreateInput{
		Type:             document.Type(req.Type),
		CreatedBy:        actor,
		DivisionID:       req.DivisionID,
		Amount:           req.Amount,
		Priority:         document.Priority(req.Priority),
		ChartOfAccountID: req.ChartOfAccountID,
		BudgetYear:       req.BudgetYear,
		BudgetMonth:      req.BudgetMonth,
		PurchasingID:     req.PurchasingID,
		Draft:            req.Draft,
		Remarks:          req.Remarks,
		Payload:          req.Payload,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *DocumentHandler) Submit(c echo.Context) error {
	ref, err := h.reference(c)
	if err != nil {
		return validationFailed(c, err)
	}
	actor, ok := requireUser(c)
	if !ok {
		return missingUser(c)
	}
	dto, err := h.uc.Submit(c.Request().Context(), ref, actor)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DocumentHandler) Decide(c echo.Context) error {
	ref, err := h.reference(c)
	if err != nil {
		return validationFailed(c, err)
	}
	actor, ok := requireUser(c)
	if !ok {
		return missingUser(c)
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	res, err := h.uc.Decide(c.Request().Context(), workflow.DecideInput{
		ReferenceNo: ref,
		ActorID:     actor,
		Decision:    routing.Decision(req.Decision),
		ReasonID:    req.ReasonID,
		Amount:      req.Amount,
		Remarks:     req.Remarks,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *DocumentHandler) Get(c echo.Context) error {
	ref, err := h.reference(c)
	if err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), ref, userID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DocumentHandler) History(c echo.Context) error {
	ref, err := h.reference(c)
	if err != nil {
		return validationFailed(c, err)
	}
	rows, err := h.uc.History(c.Request().Context(), ref)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if rows == nil {
		rows = []history.Action{}
	}
	return c.JSON(http.StatusOK, map[string]any{"reference_no": ref, "actions": rows})
}

// Inbox lists what the calling user has to act on.
func (h *DocumentHandler) Inbox(c echo.Context) error {
	actor, ok := requireUser(c)
	if !ok {
		return missingUser(c)
	}
	docs, err := h.uc.Inbox(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return c.JSON(http.StatusOK, map[string]any{"user_id": actor, "documents": docs})
}
