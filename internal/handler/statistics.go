package handler

import "github.com/gofiber/fiber/v2"

func (h *Handler) HandleLicenseStatistics(c *fiber.Ctx) error {
	stats, err := h.licenses.Statistics(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"statistics":   stats,
		"success_rate": stats.GetSuccessRate(),
	})
}
