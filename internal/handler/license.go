package handler

import (
	"strings"

	"license-key-server/internal/model"

	"github.com/gofiber/fiber/v2"
)

// HandleCheckLicense is the unauthenticated check-in used by deployed clients.
// Invalid keys and quota rejections are 200 responses with valid=false.
func (h *Handler) HandleCheckLicense(c *fiber.Ctx) error {
	input := new(model.CheckLicenseInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	key := strings.TrimSpace(input.LicenseKey)
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "license_key is required",
		})
	}

	ip := ClientIP(c.Get(fiber.HeaderXForwardedFor), c.Context().RemoteIP().String())
	result, err := h.validator.Check(c.UserContext(), key, ip)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) HandleLicenseGenerate(c *fiber.Ctx) error {
	input := new(model.LicenseInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	license, err := h.licenses.Generate(c.UserContext(), currentUserID(c), *input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(license)
}

func (h *Handler) HandleGetAllLicenses(c *fiber.Ctx) error {
	licenses, err := h.licenses.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(licenses)
}

func (h *Handler) HandleGetLicense(c *fiber.Ctx) error {
	license, err := h.licenses.Get(c.UserContext(), c.Params("key"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(license)
}

// HandleLicenseUsage lists check-ins of a key, including purged keys.
func (h *Handler) HandleLicenseUsage(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	logs, total, err := h.licenses.Usage(c.UserContext(), c.Params("key"), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}

func (h *Handler) HandleLicenseDelete(c *fiber.Ctx) error {
	if err := h.licenses.Purge(c.UserContext(), currentUserID(c), c.Params("key")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
