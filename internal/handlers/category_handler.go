package handlers

import (
	"flashdeal/internal/middleware"
	"flashdeal/internal/models"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler serves the category catalog.
type CategoryHandler struct {
	service *services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// RegisterRoutes registers the category routes. Reads are public; writes
// are admin only.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	router.Get("/categories", h.HandleList)
	router.Post("/categories", auth, admin, h.HandleCreate)
	router.Put("/categories/:id", auth, admin, h.HandleUpdate)
	router.Delete("/categories/:id", auth, admin, h.HandleDelete)
}

// CategoryRequest is the body of category writes.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (h *CategoryHandler) HandleList(c *fiber.Ctx) error {
	categories, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleCreate(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.service.Create(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Category created successfully",
		"categoryId": category.ID,
	})
}

func (h *CategoryHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.Update(c.UserContext(), id, req.Name, req.Description); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Category updated successfully")
}

func (h *CategoryHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Category deleted successfully")
}
