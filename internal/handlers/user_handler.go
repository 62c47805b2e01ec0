package handlers

import (
	"flashdeal/internal/apperr"
	"flashdeal/internal/middleware"
	"flashdeal/internal/models"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves account lookups.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the user routes behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	users := router.Group("/users", auth)
	users.Get("/me", h.HandleMe)
	users.Get("/", middleware.RequireRoles(models.RoleAdmin), h.HandleList)
}

// HandleMe returns the caller's profile.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return apperr.Unauthorized("Access Denied: No Token Provided!")
	}
	user, err := h.service.GetProfile(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleList returns every account.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}
