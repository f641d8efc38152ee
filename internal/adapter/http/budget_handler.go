package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"procurement-backend/internal/usecase/budget"
)

type BudgetHandler struct {
	uc  *budget.Usecase
	log logrus.FieldLogger
}

func NewBudgetHandler(uc *budget.Usecase, log logrus.FieldLogger) *BudgetHandler {
	return &BudgetHandler{uc: uc, log: log}
}

func (h *BudgetHandler) Status(c echo.Context) error {
	var (
		q          budget.Query
		divisionID uint64
		rawPending string
	)
	err := echo.QueryParamsBinder(c).
		MustUint64("chart_of_account_id", &q.ChartOfAccountID).
		Uint64("division_id", &divisionID).
		MustInt("year", &q.Year).
		MustInt("month", &q.Month).
		String("pending", &rawPending).
		BindError()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if c.QueryParam("division_id") != "" {
		q.DivisionID = &divisionID
	}
	if rawPending != "" {
		if q.Pending, err = decimal.NewFromString(rawPending); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pending must be a decimal number"})
		}
	}
	st, err := h.uc.Status(c.Request().Context(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"approved_budget": st.ApprovedBudget,
		"total_availed":   st.TotalAvailed,
		"pending":         st.Pending,
		"remaining":       st.Remaining,
		"sufficient":      st.Sufficient(),
	})
}
