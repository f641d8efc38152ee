package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health    *Handler
	Documents *DocumentHandler
	LOA       *LOAHandler
	Budgets   *BudgetHandler
	Reasons   *ReasonHandler
	Metrics   http.Handler // nil: no /metrics route
}

// Register mounts every route. mutating wraps the POST endpoints (idempotency).
func Register(e *echo.Echo, h Handlers, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)
	e.GET("/ready", h.Health.Ready)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	v1 := e.Group("/api/v1")
	v1.POST("/documents", h.Documents.Create, mutating...)
	v1.GET("/documents/:reference_no", h.Documents.Get)
	v1.GET("/documents/:reference_no/history", h.Documents.History)
	v1.POST("/documents/:reference_no/submit", h.Documents.Submit, mutating...)
	v1.POST("/documents/:reference_no/decision", h.Documents.Decide, mutating...)
	v1.GET("/inbox", h.Documents.Inbox)

	v1.POST("/loa-configs", h.LOA.Create, mutating...)
	v1.GET("/loa-configs/resolve", h.LOA.Resolve)
	v1.POST("/loa-configs/:id/deactivate", h.LOA.Deactivate, mutating...)

	v1.GET("/budgets/status", h.Budgets.Status)

	v1.POST("/rejection-reasons", h.Reasons.Create, mutating...)
}
