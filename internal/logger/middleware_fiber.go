package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestIDLocal is the Fiber locals key the requestid middleware writes to.
const RequestIDLocal = "requestid"

// Middleware logs one line per request and propagates the request id into the
// user context so repository and service logs carry it too.
func Middleware(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID, _ := c.Locals(RequestIDLocal).(string)
		if requestID != "" {
			c.SetUserContext(ContextWithRequestID(c.UserContext(), requestID))
		}

		err := c.Next()
		if err != nil {
			// Run the app error handler now so the logged status is the final one.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.IP()),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			base.Error("http.request", fields...)
		case status >= fiber.StatusBadRequest:
			base.Warn("http.request", fields...)
		default:
			base.Info("http.request", fields...)
		}
		return nil
	}
}
