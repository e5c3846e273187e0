package services

import (
	"context"
	"log"

	"github.com/whitedevilpython/hackathon-registration/internal/models"
	"github.com/whitedevilpython/hackathon-registration/internal/repositories"
)

// AdminService handles the administrator's view of registrations.
type AdminService struct {
	repo      repositories.ParticipantRepository
	publisher EventPublisher
}

// NewAdminService creates a new AdminService. publisher may be nil.
func NewAdminService(repo repositories.ParticipantRepository, publisher EventPublisher) *AdminService {
	return &AdminService{
		repo:      repo,
		publisher: publisher,
	}
}

// ListAll retrieves every participant in insertion order.
func (s *AdminService) ListAll(ctx context.Context) ([]models.Participant, error) {
	return s.repo.GetAll(ctx)
}

// Delete removes the participant with uniqueID. It returns ErrNotFound when
// no row matched.
func (s *AdminService) Delete(ctx context.Context, uniqueID string) error {
	if uniqueID == "" {
		return &ValidationError{Fields: map[string]string{"unique_id": "Unique ID required"}}
	}

	deleted, err := s.repo.DeleteByUniqueID(ctx, uniqueID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}

	log.Printf("Deleted participant %s", uniqueID)
	if s.publisher != nil {
		if err := s.publisher.PublishEvent(EventParticipantDeleted, map[string]interface{}{"unique_id": uniqueID}); err != nil {
			log.Printf("Warning: Failed to publish %s event for %s: %v", EventParticipantDeleted, uniqueID, err)
		}
	}
	return nil
}

// Ping checks the participant store.
func (s *AdminService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
