package models

import "time"

// Participant represents one registrant.
type Participant struct {
	ID                uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UniqueID          string    `json:"unique_id" gorm:"uniqueIndex;type:varchar(20);not null"`
	Name              string    `json:"name" gorm:"type:varchar(255);not null"`
	Email             string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Phone             string    `json:"phone" gorm:"type:varchar(50);not null"`
	Year              string    `json:"year" gorm:"type:varchar(20);not null"`
	College           string    `json:"college" gorm:"type:varchar(255);not null"`
	IsVerified        bool      `json:"is_verified" gorm:"not null;default:false"`
	VerificationToken *string   `json:"-" gorm:"uniqueIndex;type:varchar(64)"` // Cleared once verified
	CreatedAt         time.Time `json:"created_at"`
}

// PendingRegistration holds a sign-up whose verification mail is being sent.
// It is removed when the send fails or when the participant row is inserted.
type PendingRegistration struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"uniqueIndex;type:varchar(255);not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Phone     string    `gorm:"type:varchar(50);not null"`
	Year      string    `gorm:"type:varchar(20);not null"`
	College   string    `gorm:"type:varchar(255);not null"`
	Token     string    `gorm:"uniqueIndex;type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// Participant converts the pending sign-up into a participant row.
func (p *PendingRegistration) Participant() *Participant {
	return &Participant{
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Year:    p.Year,
		College: p.College,
	}
}

// Sequence is a lock row guarding identifier allocation for one table.
type Sequence struct {
	Name      string `gorm:"primaryKey;type:varchar(64)"`
	UpdatedAt time.Time
}
