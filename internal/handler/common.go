package handler // handler holds the echo HTTP handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/festival-booking/internal/service"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the user_id that JWTAuth stored in the context.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        if t > 0 {
            return t, nil
        }
    case float64:
        if t > 0 {
            return uint64(t), nil
        }
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
    switch {
    case service.IsValidation(err):
        return http.StatusBadRequest
    case service.IsNotFound(err):
        return http.StatusNotFound
    case service.IsConflict(err):
        return http.StatusConflict
    case service.IsPaymentRequired(err):
        return http.StatusPaymentRequired
    case service.IsForbidden(err):
        return http.StatusForbidden
    case service.IsExternal(err):
        return http.StatusBadGateway
    case errors.Is(err, context.DeadlineExceeded):
        return http.StatusGatewayTimeout
    }
    return http.StatusInternalServerError
}

// writeError answers {"error", "reason"} for err.  Messages of server-side
// failures are logged, not returned.
func writeError(c echo.Context, err error) error {
    status := statusOf(err)
    body := echo.Map{"error": err.Error()}
    if r := service.ReasonOf(err); r != service.ReasonNone {
        body["reason"] = r
    }
    var ext service.ExternalServiceError
    switch {
    case errors.As(err, &ext):
        zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("service", ext.Service).Msg("external service failed")
        body["error"] = ext.Service + " unavailable"
    case status >= http.StatusInternalServerError:
        zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
        body["error"] = "internal error"
    }
    if pr := (service.PaymentRequiredError{}); errors.As(err, &pr) {
        body["amount"] = pr.AmountCents
    }
    return c.JSON(status, body)
}
