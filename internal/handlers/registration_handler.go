package handlers

import (
	"errors"
	"log"

	"github.com/whitedevilpython/hackathon-registration/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RegistrationHandler handles the public sign-up pages.
type RegistrationHandler struct {
	service *services.RegistrationService
	title   string
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(service *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		title:   "Hackathon Registration",
	}
}

// RegisterRoutes registers the public routes with the Fiber app.
func (h *RegistrationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
	router.Post("/register", h.HandleRegister)
	router.Get("/verify/:token", h.HandleVerify)
}

// HandleHome renders the landing page with the sign-up form.
func (h *RegistrationHandler) HandleHome(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":               h.title,
		"VerificationEnabled": h.service.VerificationEnabled(),
	})
}

// HandleRegister registers a new participant.
func (h *RegistrationHandler) HandleRegister(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	participant, err := h.service.Register(c.UserContext(), input)
	if err != nil {
		log.Printf("Error registering participant: %v", err)

		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "All fields required",
				"errors":  validationErr.Fields,
			})
		case errors.Is(err, services.ErrDuplicateEmail):
			return errorJSON(c, fiber.StatusBadRequest, "Email already registered!")
		case errors.Is(err, services.ErrNotification):
			return errorJSON(c, fiber.StatusBadRequest, "Could not send verification email. Please check the address and try again.")
		default:
			return errorJSON(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	message := "Registration successful!"
	if h.service.VerificationEnabled() {
		message = "Registration successful! Please check your email to verify your address."
	}
	return c.JSON(fiber.Map{
		"status":    "success",
		"message":   message,
		"unique_id": participant.UniqueID,
	})
}

// HandleVerify consumes a verification link and answers in plain text.
func (h *RegistrationHandler) HandleVerify(c *fiber.Ctx) error {
	participant, err := h.service.Verify(c.UserContext(), c.Params("token"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.SendString("Invalid or expired verification link.")
		}
		log.Printf("Error verifying token: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Verification failed: " + err.Error())
	}
	return c.SendString("Email verified successfully! Your registration ID is " + participant.UniqueID + ".")
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
