package repositories

import (
	"context"
	"errors"

	"github.com/whitedevilpython/hackathon-registration/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the email is already taken by a participant.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateUniqueID is returned when the unique_id constraint rejects an insert.
	ErrDuplicateUniqueID = errors.New("unique id already allocated")
)

// NextIDFunc derives the next public identifier from the latest one stored.
// last is empty when the table has no rows.
type NextIDFunc func(last string) (string, error)

// ParticipantRepository defines the interface for participant data access.
type ParticipantRepository interface {
	GetAll(ctx context.Context) ([]models.Participant, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// CreateWithNextID allocates participant.UniqueID with next and inserts the
	// row in one serialized transaction. Any pending registration for the same
	// email is removed in that transaction.
	CreateWithNextID(ctx context.Context, participant *models.Participant, next NextIDFunc) error
	// MarkVerified flips the row holding token to verified and clears the token.
	MarkVerified(ctx context.Context, token string) (*models.Participant, error)
	DeleteByUniqueID(ctx context.Context, uniqueID string) (int64, error)
	Ping(ctx context.Context) error
}

// PendingRepository defines the interface for pending registration access.
type PendingRepository interface {
	// Put stores the pending registration, replacing any earlier one for the same email.
	Put(ctx context.Context, pending *models.PendingRegistration) error
	GetByToken(ctx context.Context, token string) (*models.PendingRegistration, error)
	DeleteByEmail(ctx context.Context, email string) error
}
