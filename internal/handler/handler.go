package handler

import (
	"errors"
	"net"
	"strings"

	"license-key-server/internal/logger"
	"license-key-server/internal/middleware"
	"license-key-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services are the collaborators the HTTP layer calls into.
type Services struct {
	Validator  *service.Validator
	Systems    *service.SystemService
	Licenses   *service.LicenseService
	Auth       *service.AuthService
	Operations *service.OperationLogService
}

type Handler struct {
	validator *service.Validator
	systems   *service.SystemService
	licenses  *service.LicenseService
	auth      *service.AuthService
	ops       *service.OperationLogService
	log       *zap.Logger
}

func New(s Services, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		validator: s.Validator,
		systems:   s.Systems,
		licenses:  s.Licenses,
		auth:      s.Auth,
		ops:       s.Operations,
		log:       log,
	}
}

// ClientIP returns the first X-Forwarded-For hop, else the peer address.
// An empty result means the address is unknown; unspecified addresses such
// as 0.0.0.0 count as unknown.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = knownAddr(first); first != "" {
			return first
		}
	}
	return knownAddr(remoteAddr)
}

func knownAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if ip := net.ParseIP(addr); ip != nil && ip.IsUnspecified() {
		return ""
	}
	return addr
}

// writeError maps service errors to status codes. Anything unmapped is
// returned to Fiber's ErrorHandler as a server error.
func writeError(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = fiber.StatusConflict
	default:
		return err
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ErrorHandler renders unhandled errors as JSON. Internal details are logged,
// not returned.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		logger.WithContext(c.UserContext(), log).Error("request failed",
			zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.UserIDLocal).(uint)
	return id
}

func pageParams(c *fiber.Ctx) (int, int) {
	return c.QueryInt("page", 1), c.QueryInt("page_size", 10)
}
