package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/whitedevilpython/hackathon-registration/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMPendingRepository is a GORM implementation of PendingRepository.
type GORMPendingRepository struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGORMPendingRepository creates a GORMPendingRepository whose records
// stop resolving once they are older than ttl.
func NewGORMPendingRepository(db *gorm.DB, ttl time.Duration) *GORMPendingRepository {
	return &GORMPendingRepository{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// Put upserts the pending registration keyed by email.
func (r *GORMPendingRepository) Put(ctx context.Context, pending *models.PendingRegistration) error {
	pending.CreatedAt = r.now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "year", "college", "token", "created_at"}),
	}).Create(pending).Error
	if err != nil {
		return fmt.Errorf("failed to store pending registration for %s: %w", pending.Email, err)
	}
	return nil
}

// GetByToken returns the unexpired pending registration holding token.
func (r *GORMPendingRepository) GetByToken(ctx context.Context, token string) (*models.PendingRegistration, error) {
	var pending models.PendingRegistration
	err := r.db.WithContext(ctx).
		Where("token = ? AND created_at > ?", token, r.now().Add(-r.ttl)).
		First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pending registration by token: %w", err)
	}
	return &pending, nil
}

// DeleteByEmail removes the pending registration for email, if any.
func (r *GORMPendingRepository) DeleteByEmail(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.PendingRegistration{}).Error; err != nil {
		return fmt.Errorf("failed to delete pending registration for %s: %w", email, err)
	}
	return nil
}
