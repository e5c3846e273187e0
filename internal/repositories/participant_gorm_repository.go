package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/whitedevilpython/hackathon-registration/internal/models"

	"gorm.io/gorm"
)

// ParticipantSequence names the guard row serializing participant allocation.
const ParticipantSequence = "participants"

// GORMParticipantRepository is a GORM implementation of ParticipantRepository.
type GORMParticipantRepository struct {
	db *gorm.DB
}

// NewGORMParticipantRepository creates a new instance of GORMParticipantRepository.
func NewGORMParticipantRepository(db *gorm.DB) *GORMParticipantRepository {
	return &GORMParticipantRepository{
		db: db,
	}
}

// GetAll retrieves all participants in insertion order.
func (r *GORMParticipantRepository) GetAll(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("failed to get all participants: %w", err)
	}
	return participants, nil
}

// ExistsByEmail reports whether a participant already uses email.
func (r *GORMParticipantRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Participant{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email %s: %w", email, err)
	}
	return count > 0, nil
}

// CreateWithNextID allocates an identifier and inserts the participant.
//
// The transaction opens with a write to the sequence guard row. On Postgres
// that takes a row lock held until commit; on SQLite it takes the database
// write lock. Either way, concurrent allocations read the latest unique_id
// one at a time, and the unique indexes on unique_id and email reject
// anything that slips past.
func (r *GORMParticipantRepository) CreateWithNextID(ctx context.Context, participant *models.Participant, next NextIDFunc) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Sequence{}).
			Where("name = ?", ParticipantSequence).
			Update("updated_at", time.Now())
		if res.Error != nil {
			return fmt.Errorf("failed to lock sequence %s: %w", ParticipantSequence, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("sequence %s is not initialized", ParticipantSequence)
		}

		var last models.Participant
		res = tx.Select("unique_id").Order("id DESC").Limit(1).Find(&last)
		if res.Error != nil {
			return fmt.Errorf("failed to read latest unique id: %w", res.Error)
		}

		uniqueID, err := next(last.UniqueID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Participant{}).Where("email = ?", participant.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check email %s: %w", participant.Email, err)
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		participant.ID = 0
		participant.UniqueID = uniqueID
		if err := tx.Create(participant).Error; err != nil {
			return classifyConstraintError(err)
		}

		if err := tx.Where("email = ?", participant.Email).Delete(&models.PendingRegistration{}).Error; err != nil {
			return fmt.Errorf("failed to clear pending registration for %s: %w", participant.Email, err)
		}
		return nil
	})
	if err != nil {
		participant.UniqueID = ""
		return err
	}
	return nil
}

// MarkVerified sets is_verified and clears the token of the row holding token.
// A token that matches no row, or that a concurrent call already consumed,
// yields ErrNotFound.
func (r *GORMParticipantRepository) MarkVerified(ctx context.Context, token string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&participant, "verification_token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up verification token: %w", err)
		}

		res := tx.Model(&models.Participant{}).
			Where("id = ? AND verification_token = ?", participant.ID, token).
			Updates(map[string]interface{}{
				"is_verified":        true,
				"verification_token": nil,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to verify participant %s: %w", participant.UniqueID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	participant.IsVerified = true
	participant.VerificationToken = nil
	return &participant, nil
}

// DeleteByUniqueID removes the participant with uniqueID and returns the number of rows removed.
func (r *GORMParticipantRepository) DeleteByUniqueID(ctx context.Context, uniqueID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("unique_id = ?", uniqueID).Delete(&models.Participant{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete participant %s: %w", uniqueID, res.Error)
	}
	return res.RowsAffected, nil
}

// Ping checks that the database answers.
func (r *GORMParticipantRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	var one int
	if err := r.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	return nil
}
