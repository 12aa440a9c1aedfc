package middleware

import (
	"errors"
	"net/http"

	"packvault/internal/permissions"

	"github.com/labstack/echo/v4"
)

// RequirePublisherPermission checks a single permission flag against the
// publisher addressed by the :publisherId path param. Site admins bypass
// the publisher-level model entirely.
func RequirePublisherPermission(evaluator *permissions.Evaluator, flag permissions.Flag) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsSiteAdmin(c) {
				return next(c)
			}

			publisherID := c.Param("publisherId")
			if publisherID == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing publisher id")
			}

			allowed, err := evaluator.HasPermission(c.Request().Context(), GetUserID(c), publisherID, flag, "")
			if err != nil {
				if errors.Is(err, permissions.ErrNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, "publisher not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "permission check failed")
			}

			if !allowed {
				return echo.NewHTTPError(http.StatusForbidden, map[string]string{
					"error": "insufficient permissions",
					"code":  flag.DenialCode(),
				})
			}

			return next(c)
		}
	}
}

// RequireSiteAdmin guards the moderation and payout surfaces.
func RequireSiteAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsSiteAdmin(c) {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}
