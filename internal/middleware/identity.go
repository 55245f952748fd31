package middleware

// identity.go reads the caller identity that JWTAuth put in the context.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/festival-booking/internal/model"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id > 0
}

// Role returns the authenticated user's role.
func Role(c echo.Context) (model.Role, bool) {
    r, ok := c.Get(ctxRole).(model.Role)
    return r, ok
}

// userKey is the user component of rate limit keys; "anon" before auth.
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
