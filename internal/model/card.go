package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CardStatus string

const (
	// CardStatusPending marks a physically generated card that has not
	// been claimed yet. Content saves are rejected until activation.
	CardStatusPending CardStatus = "pending"
	CardStatusActive  CardStatus = "active"
	CardStatusDeleted CardStatus = "deleted"
)

// MessageTypePlaceholder fills message_type on cards that exist before any
// content has been uploaded (batch-generated or pre-activation rows).
const MessageTypePlaceholder = "pending"

type Card struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CardID      string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"card_id"`
	Status      CardStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	MessageType string     `gorm:"type:varchar(32)" json:"message_type"`
	MessageText *string    `json:"message_text,omitempty"`
	MediaURL    *string    `json:"media_url,omitempty"`
	FileName    *string    `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	FileSize    *int64     `json:"file_size,omitempty"`
	FileType    *string    `gorm:"type:varchar(128)" json:"file_type,omitempty"`
	ScanCount   int        `gorm:"not null;default:0" json:"scan_count"`

	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedByIP string    `gorm:"type:varchar(64)" json:"created_by_ip,omitempty"`
	UpdatedByIP string    `gorm:"type:varchar(64)" json:"updated_by_ip,omitempty"`

	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	ActivatedByIP   *string    `gorm:"type:varchar(64)" json:"activated_by_ip,omitempty"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`
	TermsAcceptedIP *string    `gorm:"type:varchar(64)" json:"terms_accepted_ip,omitempty"`
}

func (Card) TableName() string { return "cards" }

// NormalizeCardID trims and upper-cases a client-supplied card identifier.
// Every lookup and insert goes through this, so "abc123" and "ABC123" name
// the same card.
func NormalizeCardID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
