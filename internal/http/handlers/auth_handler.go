package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "butik/internal/log"
	"butik/internal/repos"
	"butik/internal/services"
	"butik/internal/validate"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Users *repos.UserRepo
}

// POST /users/create
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	u, err := h.Auth.Register(in)
	if err != nil {
		return failErr(c, "user.register", err)
	}
	applog.Audit(c, "user.register", map[string]any{"user_id": u.ID})
	return ok(c, fiber.StatusCreated, "User created successfully", u)
}

// POST /users/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	email, okE := validate.Email(in.Email)
	if !okE || in.Password == "" {
		return fail(c, fiber.StatusBadRequest, "email and password are required")
	}
	token, u, err := h.Auth.Login(email, in.Password)
	if err != nil {
		applog.Security(c, "user.login.fail", map[string]any{"email": email})
		return failErr(c, "user.login", err)
	}
	applog.Audit(c, "user.login", map[string]any{"user_id": u.ID})
	return ok(c, fiber.StatusOK, "Login successful", fiber.Map{"token": token, "user": u})
}

// GET /users/all (admin)
func (h *AuthHandler) List(c *fiber.Ctx) error {
	users, err := h.Users.List()
	if err != nil {
		return failErr(c, "user.list", err)
	}
	return ok(c, fiber.StatusOK, "", fiber.Map{"users": users, "total_users": len(users)})
}

// PUT /users/edit/:id
func (h *AuthHandler) Edit(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid user ID is required")
	}
	// Users may edit only themselves; admins may edit anyone.
	if callerRole(c) != "admin" && callerID(c) != id {
		applog.Security(c, "access.denied.user.edit", map[string]any{"target": id})
		return fail(c, fiber.StatusForbidden, "cannot edit another user")
	}

	var in struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	u, err := h.Users.ByID(id)
	if err != nil {
		return failErr(c, "user.edit", err)
	}
	if in.Name != "" {
		name, okN := validate.Name(in.Name)
		if !okN {
			return fail(c, fiber.StatusBadRequest, "invalid name")
		}
		u.Name = name
	}
	if in.Email != "" {
		email, okE := validate.Email(in.Email)
		if !okE {
			return fail(c, fiber.StatusBadRequest, "invalid email")
		}
		u.Email = email
	}
	if in.Phone != "" {
		phone, okP := validate.Phone(in.Phone)
		if !okP {
			return fail(c, fiber.StatusBadRequest, "invalid phone")
		}
		u.Phone = phone
	}
	if err := h.Users.Update(*u); err != nil {
		return failErr(c, "user.edit", err)
	}
	applog.Audit(c, "user.edit", map[string]any{"user_id": id})
	return ok(c, fiber.StatusOK, "User updated successfully", u)
}

// DELETE /users/delete/:id (admin)
func (h *AuthHandler) Delete(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "valid user ID is required")
	}
	if err := h.Users.DeleteCascade(id); err != nil {
		return failErr(c, "user.delete", err)
	}
	applog.Audit(c, "user.delete", map[string]any{"user_id": id})
	return ok(c, fiber.StatusOK, "User deleted successfully", fiber.Map{"deleted_user_id": id})
}
