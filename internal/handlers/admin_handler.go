package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/whitedevilpython/hackathon-registration/internal/middleware"
	"github.com/whitedevilpython/hackathon-registration/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the administrator routes.
type AdminHandler struct {
	service             *services.AdminService
	auth                *services.AdminAuthService
	verificationEnabled bool
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.AdminService, auth *services.AdminAuthService, verificationEnabled bool) *AdminHandler {
	return &AdminHandler{
		service:             service,
		auth:                auth,
		verificationEnabled: verificationEnabled,
	}
}

// RegisterRoutes registers the admin routes with the Fiber app.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	adminOnly := middleware.AdminRequired(h.auth)

	router.Post("/admin/login", h.HandleLogin)
	router.Get("/admin", adminOnly, h.HandleList)
	router.Post("/delete", adminOnly, h.HandleDelete)
	router.Get("/test-db", h.HandleTestDB)
}

// HandleList renders the table of all participants.
func (h *AdminHandler) HandleList(c *fiber.Ctx) error {
	participants, err := h.service.ListAll(c.UserContext())
	if err != nil {
		log.Printf("Error listing participants: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.Render("admin", fiber.Map{
		"Participants":        participants,
		"VerificationEnabled": h.verificationEnabled,
	})
}

// DeleteRequest represents the request body for deleting a participant.
type DeleteRequest struct {
	UniqueID string `json:"unique_id"`
}

// HandleDelete deletes a participant by unique id.
func (h *AdminHandler) HandleDelete(c *fiber.Ctx) error {
	var req DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing delete request body: %v", err)
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.Delete(c.UserContext(), req.UniqueID); err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return errorJSON(c, fiber.StatusBadRequest, "Unique ID required")
		case errors.Is(err, services.ErrNotFound):
			return errorJSON(c, fiber.StatusNotFound, "Participant not found")
		default:
			log.Printf("Error deleting participant %s: %v", req.UniqueID, err)
			return errorJSON(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("Participant %s deleted", req.UniqueID),
	})
}

// HandleTestDB reports whether the database is reachable.
func (h *AdminHandler) HandleTestDB(c *fiber.Ctx) error {
	if err := h.service.Ping(c.UserContext()); err != nil {
		log.Printf("Database check failed: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Database connection successful",
	})
}

// LoginRequest represents the request body for admin login.
type LoginRequest struct {
	Password string `json:"password"`
}

// HandleLogin exchanges the admin password for a JWT, also set as a cookie.
func (h *AdminHandler) HandleLogin(c *fiber.Ctx) error {
	if !h.auth.Enabled() {
		return errorJSON(c, fiber.StatusNotFound, "Admin login is not enabled")
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Password required")
	}

	token, err := h.auth.Login(req.Password)
	if err != nil {
		log.Printf("Admin login failed: %v", err)
		if errors.Is(err, services.ErrInvalidCredentials) {
			return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminTokenCookie,
		Value:    token,
		Expires:  time.Now().Add(h.auth.TokenDuration()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(fiber.Map{
		"status": "success",
		"token":  token,
	})
}
