package handler

import "github.com/gofiber/fiber/v2"

func (h *Handler) HandleGetLogs(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	logs, total, err := h.ops.List(c.UserContext(), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}
