package handler

import (
	"errors"

	"license-key-server/internal/middleware"
	"license-key-server/internal/model"
	"license-key-server/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleUserRegister(c *fiber.Ctx) error {
	input := new(model.RegisterInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	user, err := h.auth.Register(c.UserContext(), currentUserID(c), *input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) HandleUserLogin(c *fiber.Ctx) error {
	input := new(model.LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	ip := ClientIP(c.Get(fiber.HeaderXForwardedFor), c.Context().RemoteIP().String())
	result, err := h.auth.Login(c.UserContext(), *input, ip, c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) HandleUserInfo(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

func (h *Handler) HandleGetLoginLogs(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	logs, total, err := h.auth.LoginLogs(c.UserContext(), currentUserID(c), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}

// HandleValidateToken reports whether a token still resolves to an active user.
func (h *Handler) HandleValidateToken(c *fiber.Ctx) error {
	type TokenInput struct {
		Token string `json:"token"`
	}

	input := new(TokenInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if input.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token is required",
			"valid": false,
		})
	}

	user, err := h.auth.Authenticate(c.UserContext(), input.Token)
	if errors.Is(err, service.ErrUnauthorized) {
		return c.JSON(fiber.Map{
			"valid": false,
			"error": "invalid token",
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"valid": true,
		"user":  user,
	})
}
