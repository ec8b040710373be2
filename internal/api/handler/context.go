package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
)

// ctxPrincipal extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - sub and role must be non-empty (presence proves the middleware ran).
//   - operasional tokens must carry a concrete site claim; without it the JWT
//     is structurally valid but operationally unusable; reject with 401.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	id, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if id == "" || role == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	site, _ := c.Get("site").(string)
	if role == domain.RoleOperasional && !domain.ValidCategory(site) {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing site assignment")
	}

	username, _ := c.Get("username").(string)
	return domain.Principal{ID: id, Username: username, Role: role, Site: site}, nil
}
