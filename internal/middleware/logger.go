package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request and puts a
// request-scoped logger in the request context for zerolog.Ctx.  Register
// it after echo's RequestID middleware so the id is already set.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            reqID := c.Response().Header().Get(echo.HeaderXRequestID)
            reqLog := log.With().Str("request_id", reqID).Logger()
            req := c.Request()
            c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))

            err := next(c)
            if err != nil {
                // Let echo's error handler set the final status first.
                c.Error(err)
            }
            res := c.Response()
            ev := reqLog.Info()
            switch {
            case res.Status >= 500:
                ev = reqLog.Error().Err(err)
            case res.Status >= 400:
                ev = reqLog.Warn()
            }
            if uid, ok := UserID(c); ok {
                ev = ev.Uint64("user_id", uid)
            }
            ev.Str("method", c.Request().Method).
                Str("path", c.Path()).
                Int("status", res.Status).
                Int64("bytes", res.Size).
                Dur("latency", time.Since(start)).
                Msg("request")
            return nil
        }
    }
}
