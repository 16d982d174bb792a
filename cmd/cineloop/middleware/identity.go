package middleware

import (
	"net/http"
	"strconv"

	"github.com/cineloop/cineloop/common/models"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderFid carries the acting user's stable numeric Farcaster id,
	// injected by the host platform in front of this service
	HeaderFid = "X-Farcaster-Fid"

	// HeaderUsername carries the acting user's display name
	HeaderUsername = "X-Farcaster-Username"

	// UserKey is the echo context key holding the resolved models.User
	UserKey = "user"
)

// ExtractUser resolves the acting user from the host-platform identity
// headers and stores it in the request context.
//
// Without identity headers the request is rejected, unless allowAnonymous
// is set (dev/testing), in which case the synthetic anonymous user is
// substituted.
func ExtractUser(allowAnonymous bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawFid := c.Request().Header.Get(HeaderFid)
			if rawFid == "" {
				if !allowAnonymous {
					return c.JSON(http.StatusUnauthorized, map[string]interface{}{
						"reason":  "identity_required",
						"message": "Farcaster identity headers are required",
					})
				}
				c.Set(UserKey, models.Anonymous)
				return next(c)
			}

			fid, err := strconv.ParseInt(rawFid, 10, 64)
			if err != nil || fid <= 0 {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"reason":  "invalid_identity",
					"message": "X-Farcaster-Fid must be a positive integer",
				})
			}

			username := c.Request().Header.Get(HeaderUsername)
			if username == "" {
				username = "user" + rawFid
			}

			c.Set(UserKey, models.User{Fid: fid, Username: username})
			return next(c)
		}
	}
}

// GetUser returns the user placed in the context by ExtractUser
func GetUser(c echo.Context) (models.User, bool) {
	user, ok := c.Get(UserKey).(models.User)
	return user, ok
}
