package handlers

import (
	"flashdeal/internal/middleware"
	"flashdeal/internal/models"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	limiter     *middleware.IPRateLimiter
}

// NewAuthHandler creates a new AuthHandler. limiter throttles login attempts
// and may be nil.
func NewAuthHandler(authService *services.AuthService, limiter *middleware.IPRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	if h.limiter != nil {
		authRoutes.Post("/login", middleware.RateLimit(h.limiter), h.HandleLogin)
	} else {
		authRoutes.Post("/login", h.HandleLogin)
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"required,oneof=Admin Seller Buyer"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Logged in successfully",
		"token":   token,
		"user":    user,
	})
}
