package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"butik/internal/domain"
	applog "butik/internal/log"
	"butik/internal/repos"
	"butik/internal/services"
	"butik/internal/validate"
)

type OrderHandler struct {
	Order   *services.OrderService
	Uploads *Uploads
}

// POST /orders/create — items may arrive as a JSON array or, for multipart
// requests, as a JSON-encoded "items" form field.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in services.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		if raw := c.FormValue("items"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in.Items); err != nil {
				return fail(c, fiber.StatusBadRequest, "items must be a JSON array")
			}
			in.ShippingMethod = c.FormValue("shipping_method")
			in.ShippingAddress = c.FormValue("shipping_address")
			if v := c.FormValue("shipping_cost"); v != "" {
				cost, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return fail(c, fiber.StatusBadRequest, "shipping_cost must be a valid number")
				}
				in.ShippingCost = cost
			}
		} else {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	in.UserID = callerID(c)

	o, err := h.Order.Create(in)
	if err != nil {
		return failErr(c, "order.create", err)
	}
	applog.Audit(c, "order.create", map[string]any{"order_id": o.ID, "total_price": o.TotalPrice})
	return ok(c, fiber.StatusCreated, "Order created successfully", fiber.Map{
		"order":       o,
		"items_count": len(in.Items),
	})
}

// GET /orders?status=&user_id=&page=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit := 10
	f := repos.ListFilter{
		Status: domain.Status(c.Query("status")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if callerRole(c) == "admin" {
		f.UserID = c.Query("user_id")
	}
	orders, total, err := h.Order.List(callerID(c), callerRole(c), f)
	if err != nil {
		return failErr(c, "order.list", err)
	}
	totalPages := (total + limit - 1) / limit
	return ok(c, fiber.StatusOK, "", fiber.Map{
		"orders": orders,
		"pagination": fiber.Map{
			"current_page": page,
			"total_pages":  totalPages,
			"total_orders": total,
			"limit":        limit,
			"has_next":     page < totalPages,
			"has_prev":     page > 1,
		},
		"user_role": callerRole(c),
	})
}

// GET /orders/summary — order counts per status for the caller (admins may
// scope to any user with ?user_id=).
func (h *OrderHandler) StatusSummary(c *fiber.Ctx) error {
	sum, err := h.Order.StatusSummary(callerID(c), callerRole(c), c.Query("user_id"))
	if err != nil {
		return failErr(c, "order.summary", err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"status_summary": sum})
}

// GET /orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid order ID is required")
	}
	o, items, err := h.Order.Get(id)
	if err != nil {
		return failErr(c, "order.get", err)
	}
	if callerRole(c) != "admin" && o.UserID != callerID(c) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return fail(c, fiber.StatusNotFound, "order not found")
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"order": o, "items": items})
}

// PUT /orders/:id — partial update of status and shipping fields.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid order ID is required")
	}
	var in services.UpdateOrderInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	o, err := h.Order.Update(id, in)
	if err != nil {
		return failErr(c, "order.update", err)
	}
	applog.Audit(c, "order.update", map[string]any{"order_id": id, "status": o.Status})
	return ok(c, fiber.StatusOK, "Order updated successfully", o)
}

// PUT /orders/:id/transfer-proof — multipart upload. The first proof for an
// order triggers the stock reconciliation; re-uploads only swap the file.
func (h *OrderHandler) AttachProof(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid order ID is required")
	}
	fh, err := c.FormFile("transfer_proof")
	if err != nil || fh == nil {
		return fail(c, fiber.StatusBadRequest, "transfer proof image is required")
	}
	ref, err := h.Uploads.Save(c, fh, "transfer-proof")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := h.Order.AttachProof(id, ref)
	if err != nil {
		// The reconciliation rolled back; drop the just-saved file too.
		h.Uploads.Remove(c, ref)
		return failErr(c, "order.proof", err)
	}
	h.Uploads.Remove(c, res.OldProof)

	applog.Audit(c, "order.proof", map[string]any{"order_id": id, "stock_decremented": res.Decremented})
	return ok(c, fiber.StatusOK, "Transfer proof updated successfully", fiber.Map{
		"order_id":          id,
		"transfer_proof":    ref,
		"stock_decremented": res.Decremented,
	})
}

// DELETE /orders/:id (admin)
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid order ID is required")
	}
	proof, err := h.Order.Delete(id)
	if err != nil {
		return failErr(c, "order.delete", err)
	}
	h.Uploads.Remove(c, proof)
	applog.Audit(c, "order.delete", map[string]any{"order_id": id})
	return ok(c, fiber.StatusOK, "Order deleted successfully", fiber.Map{"deleted_order_id": id})
}
