package domain

import "time"

// Idempotency records the response of a completed chat turn, keyed by
// (user_id, key). A retried POST with the same Idempotency-Key is answered
// from this record instead of running the turn again, provided its body
// hashes to RequestHash. Rows written before the hash existed carry "".
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:1"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:2"`
	ConversationID string    `gorm:"type:TEXT NOT NULL"`
	MessageID      string    `gorm:"type:TEXT NOT NULL"`
	RequestHash    string    `gorm:"type:TEXT NOT NULL;default:''"`
	Status         int       `gorm:"type:INTEGER NOT NULL"`
	Body           string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
