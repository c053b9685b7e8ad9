package handler

import (
	"license-key-server/internal/model"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleRegisterSystem(c *fiber.Ctx) error {
	input := new(model.ActiveSystemInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	system, err := h.systems.Register(c.UserContext(), currentUserID(c), *input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(system)
}

func (h *Handler) HandleListSystems(c *fiber.Ctx) error {
	systems, err := h.systems.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(systems)
}
