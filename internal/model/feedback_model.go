package model

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is a user rating on a generated answer, kept for offline
// quality review.
type Feedback struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Query     string    `gorm:"type:text;not null"`
	Answer    string    `gorm:"type:text;not null"`
	Rating    int       `gorm:"not null"` // 1-5
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Feedback) TableName() string {
	return "feedback"
}
