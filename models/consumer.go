package models

import (
	"time"

	"github.com/google/uuid"
)

// Consumer is a registered client system. ConsumerID is the exact common name
// (CN) carried in the subject of the consumer's client certificate.
type Consumer struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ConsumerID  string    `json:"consumer_id" db:"consumer_id"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Consumer model
func (Consumer) TableName() string {
	return "consumers"
}

// NewConsumer creates a new Consumer instance
func NewConsumer(consumerID, description string) *Consumer {
	now := time.Now().UTC()
	return &Consumer{
		ID:          uuid.New(),
		ConsumerID:  consumerID,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
