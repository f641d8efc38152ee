package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// The caller identity is asserted by the gateway in front of the service.
const headerUserID = "Ax-User-Id"

func userID(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(headerUserID))
}

func requireUser(c echo.Context) (string, bool) {
	u := userID(c)
	return u, u != ""
}

func missingUser(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing " + headerUserID})
}
