package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "butik/internal/log"
	"butik/internal/services"
	"butik/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// POST /cart/create
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if _, okID := validate.ID(in.ProductID); !okID {
		return fail(c, fiber.StatusBadRequest, "valid product_id is required")
	}
	res, err := h.Cart.AddItem(callerID(c), in.ProductID, in.Quantity)
	if err != nil {
		return failErr(c, "cart.add", err)
	}
	msg := "Item added to cart successfully"
	if !res.Created {
		msg = "Cart item updated successfully"
	}
	applog.Info(c, "cart.add", map[string]any{"cart_id": res.CartID, "product_id": in.ProductID})
	return ok(c, fiber.StatusCreated, msg, res)
}

// GET /cart — admins may pass ?user_id= to inspect any cart.
func (h *CartHandler) List(c *fiber.Ctx) error {
	filter := callerID(c)
	if callerRole(c) == "admin" {
		filter = c.Query("user_id")
	}
	carts, err := h.Cart.List(filter)
	if err != nil {
		return failErr(c, "cart.list", err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"carts": carts, "total_carts": len(carts)})
}

// PUT /cart/:id — overwrite a cart item's quantity.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid cart item ID is required")
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	it, err := h.Cart.UpdateItem(id, in.Quantity)
	if err != nil {
		return failErr(c, "cart.update", err)
	}
	return ok(c, fiber.StatusOK, "Cart item updated successfully", it)
}

// DELETE /cart/:id — remove one cart item.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid cart item ID is required")
	}
	if err := h.Cart.RemoveItem(id); err != nil {
		return failErr(c, "cart.remove", err)
	}
	return ok(c, fiber.StatusOK, "Cart item deleted successfully", fiber.Map{"deleted_item_id": id})
}

// POST /cart/clear — remove every item from the caller's cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	n, err := h.Cart.Clear(callerID(c))
	if err != nil {
		return failErr(c, "cart.clear", err)
	}
	return ok(c, fiber.StatusOK, "Cart cleared successfully", fiber.Map{"deleted_items": n})
}
