package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "butik/internal/log"
	"butik/internal/services"
	"butik/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Uploads *Uploads
}

func parseProductForm(c *fiber.Ctx) (services.ProductInput, error) {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return services.ProductInput{}, err
	}
	return in, nil
}

// POST /products/create (admin, multipart with optional image)
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in, err := parseProductForm(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		ref, err := h.Uploads.Save(c, fh, "product")
		if err != nil {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		in.Image = ref
	}
	p, err := h.Catalog.Create(in)
	if err != nil {
		return failErr(c, "product.create", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID})
	return ok(c, fiber.StatusCreated, "Product created successfully", p)
}

// GET /products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	products, total, err := h.Catalog.List(page, 10)
	if err != nil {
		return failErr(c, "product.list", err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{
		"products": products,
		"pagination": fiber.Map{
			"current_page":   page,
			"total_products": total,
		},
	})
}

// GET /products/search?q=
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return fail(c, fiber.StatusBadRequest, "query parameter q is required")
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	products, err := h.Catalog.Search(q, page, 10)
	if err != nil {
		return failErr(c, "product.search", err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"products": products, "query": q})
}

// GET /products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid product ID is required")
	}
	p, err := h.Catalog.Get(id)
	if err != nil {
		return failErr(c, "product.get", err)
	}
	return ok(c, fiber.StatusOK, "", p)
}

// GET /products/:id/availability?qty=
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid product ID is required")
	}
	qty, err := strconv.Atoi(c.Query("qty", "1"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "qty must be a number")
	}
	a, err := h.Catalog.CheckAvailable(id, qty)
	if err != nil {
		return failErr(c, "product.availability", err)
	}
	return ok(c, fiber.StatusOK, "", a)
}

// PUT /products/:id (admin)
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid product ID is required")
	}
	in, err := parseProductForm(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	var oldImage string
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		if prev, err := h.Catalog.Get(id); err == nil {
			oldImage = prev.Image
		}
		ref, err := h.Uploads.Save(c, fh, "product")
		if err != nil {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		in.Image = ref
	}
	p, err := h.Catalog.Update(id, in)
	if err != nil {
		return failErr(c, "product.update", err)
	}
	if oldImage != "" && oldImage != p.Image {
		h.Uploads.Remove(c, oldImage)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id})
	return ok(c, fiber.StatusOK, "Product updated successfully", p)
}

// DELETE /products/:id (admin)
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid product ID is required")
	}
	image, err := h.Catalog.Delete(id)
	if err != nil {
		return failErr(c, "product.delete", err)
	}
	h.Uploads.Remove(c, image)
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return ok(c, fiber.StatusOK, "Product deleted successfully", fiber.Map{"deleted_product_id": id})
}

// GET /products/dashboard/stats (admin)
func (h *ProductHandler) Stats(c *fiber.Ctx) error {
	s, err := h.Catalog.Stats()
	if err != nil {
		return failErr(c, "product.stats", err)
	}
	return ok(c, fiber.StatusOK, "", s)
}
