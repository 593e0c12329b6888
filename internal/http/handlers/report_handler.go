package handlers

import (
	"github.com/gofiber/fiber/v2"

	"butik/internal/services"
)

type ReportHandler struct {
	Reports *services.ReportService
}

// GET /orders/reports/sales?start_date=&end_date=
func (h *ReportHandler) Sales(c *fiber.Ctx) error {
	rep, err := h.Reports.Sales(callerID(c), callerRole(c), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return failErr(c, "report.sales", err)
	}
	return ok(c, fiber.StatusOK, "", rep)
}
