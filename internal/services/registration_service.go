package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/whitedevilpython/hackathon-registration/internal/models"
	"github.com/whitedevilpython/hackathon-registration/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Routing keys for participant events.
const (
	EventParticipantRegistered = "participant.registered"
	EventParticipantVerified   = "participant.verified"
	EventParticipantDeleted    = "participant.deleted"
)

// Notifier delivers the verification email.
type Notifier interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

// EventPublisher publishes participant lifecycle events.
type EventPublisher interface {
	PublishEvent(routingKey string, payload interface{}) error
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Year    string `json:"year" validate:"required"`
	College string `json:"college" validate:"required"`
}

// RegistrationOptions configures email verification.
type RegistrationOptions struct {
	VerificationEnabled bool
	// PublicBaseURL prefixes the /verify/<token> link sent by mail.
	PublicBaseURL string
}

// RegistrationService handles sign-up and email verification.
type RegistrationService struct {
	participants repositories.ParticipantRepository
	pending      repositories.PendingRepository
	notifier     Notifier
	publisher    EventPublisher
	validate     *validator.Validate
	opts         RegistrationOptions
	newToken     func() (string, error)
}

// NewRegistrationService creates a new RegistrationService. notifier may be
// nil when verification is disabled; publisher may always be nil.
func NewRegistrationService(
	participants repositories.ParticipantRepository,
	pending repositories.PendingRepository,
	notifier Notifier,
	publisher EventPublisher,
	opts RegistrationOptions,
) *RegistrationService {
	return &RegistrationService{
		participants: participants,
		pending:      pending,
		notifier:     notifier,
		publisher:    publisher,
		validate:     newValidator(),
		opts:         opts,
		newToken:     newVerificationToken,
	}
}

// VerificationEnabled reports whether sign-ups must confirm their email.
func (s *RegistrationService) VerificationEnabled() bool {
	return s.opts.VerificationEnabled
}

// Register validates the input, sends the verification mail when enabled and
// persists the participant with a freshly allocated unique id.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*models.Participant, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	exists, err := s.participants.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	participant := &models.Participant{
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Year:       input.Year,
		College:    input.College,
		IsVerified: !s.opts.VerificationEnabled,
	}

	if s.opts.VerificationEnabled {
		token, err := s.sendVerification(ctx, input)
		if err != nil {
			return nil, err
		}
		participant.VerificationToken = &token
	}

	if err := s.participants.CreateWithNextID(ctx, participant, NextUniqueID); err != nil {
		return nil, translateCreateError(err)
	}

	log.Printf("Registered participant %s (verified: %t)", participant.UniqueID, participant.IsVerified)
	s.publish(EventParticipantRegistered, participant)
	return participant, nil
}

// sendVerification records a pending registration and mails its token. The
// pending record is dropped again if the mail cannot be sent.
func (s *RegistrationService) sendVerification(ctx context.Context, input RegisterInput) (string, error) {
	if s.notifier == nil {
		return "", &NotificationError{Email: input.Email, Err: errors.New("no mail transport configured")}
	}

	token, err := s.newToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}

	pending := &models.PendingRegistration{
		Email:   input.Email,
		Name:    input.Name,
		Phone:   input.Phone,
		Year:    input.Year,
		College: input.College,
		Token:   token,
	}
	if err := s.pending.Put(ctx, pending); err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/verify/%s", s.opts.PublicBaseURL, token)
	if err := s.notifier.SendVerification(ctx, input.Email, input.Name, link); err != nil {
		log.Printf("Verification mail to %s failed: %v", input.Email, err)
		if delErr := s.pending.DeleteByEmail(ctx, input.Email); delErr != nil {
			log.Printf("Failed to drop pending registration for %s: %v", input.Email, delErr)
		}
		return "", &NotificationError{Email: input.Email, Err: err}
	}
	return token, nil
}

// Verify consumes a verification token. A token that was mailed but whose
// participant row was never written is promoted from its pending record.
func (s *RegistrationService) Verify(ctx context.Context, token string) (*models.Participant, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	participant, err := s.participants.MarkVerified(ctx, token)
	if err == nil {
		log.Printf("Participant %s verified", participant.UniqueID)
		s.publish(EventParticipantVerified, participant)
		return participant, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	pending, err := s.pending.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	participant = pending.Participant()
	participant.IsVerified = true
	if err := s.participants.CreateWithNextID(ctx, participant, NextUniqueID); err != nil {
		// Someone else promoted or registered this email first.
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrInvalidToken
		}
		return nil, translateCreateError(err)
	}

	log.Printf("Promoted pending registration for %s to %s", participant.Email, participant.UniqueID)
	s.publish(EventParticipantRegistered, participant)
	s.publish(EventParticipantVerified, participant)
	return participant, nil
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *RegistrationService) validateInput(input RegisterInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate registration: %w", err)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &ValidationError{Fields: fields}
}

func (s *RegistrationService) publish(routingKey string, participant *models.Participant) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishEvent(routingKey, map[string]interface{}{
		"unique_id":   participant.UniqueID,
		"email":       participant.Email,
		"is_verified": participant.IsVerified,
	})
	if err != nil {
		log.Printf("Warning: Failed to publish %s event for %s: %v", routingKey, participant.UniqueID, err)
	}
}

func translateCreateError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, ErrMalformedSequence):
		log.Printf("ALERT: participant sequence is corrupt: %v", err)
		return err
	default:
		return fmt.Errorf("failed to register participant: %w", err)
	}
}

// newVerificationToken returns a random version 4 UUID without dashes.
func newVerificationToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
