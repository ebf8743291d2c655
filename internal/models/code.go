package models

import (
	"encoding/json"
	"time"

	"github.com/axellelanca/qrforge/internal/content"
)

// Mode distinguishes codes whose printed image encodes the content
// itself from codes that encode a permanent short URL.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// Valid reports whether m is one of the two modes.
func (m Mode) Valid() bool {
	return m == ModeStatic || m == ModeDynamic
}

// Status is the lifecycle state of a scannable code.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
	StatusArchived Status = "archived"
)

// ScannableCode represents one physical/printable code in the database.
// ShortCode is set iff Mode is dynamic and is globally unique; ScanCount
// only ever increases, and only through the resolver's recording step.
type ScannableCode struct {
	ID   uint         `gorm:"primaryKey"`
	Kind content.Kind `gorm:"size:32;not null;index"`
	Mode Mode         `gorm:"size:10;not null"`

	// PayloadJSON is the structured content, stored as JSON and decoded
	// through the kind's tagged union. It must validate against the
	// kind's limits at every mutation, not only at creation.
	PayloadJSON []byte `gorm:"not null"`

	// EncodedText is the canonical serialized text handed to the
	// renderer (the content itself for static codes, the short URL for
	// dynamic ones).
	EncodedText    string                 `gorm:"not null"`
	Version        int                    `gorm:"not null"`
	ErrorTolerance content.ErrorTolerance `gorm:"size:10;not null"`
	SizePx         int
	OutputFormat   string `gorm:"size:10"`
	Style          []byte // opaque passthrough to the renderer
	Image          []byte // rendered output from the encoder adapter

	ShortCode *string `gorm:"uniqueIndex;size:16"`

	Name   string `gorm:"size:255"`
	Folder string `gorm:"size:255"`
	Tags   string `gorm:"size:512"`
	Owner  string `gorm:"size:255;index"`

	Status        Status `gorm:"size:10;not null;default:'active'"`
	ExpiresAt     *time.Time
	ScanCount     int64 `gorm:"not null;default:0"`
	LastScannedAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// Payload decodes the stored JSON into the kind's typed payload.
func (c *ScannableCode) Payload() (content.Payload, error) {
	return content.DecodePayload(c.Kind, c.PayloadJSON)
}

// SetPayload stores p as the code's structured content.
func (c *ScannableCode) SetPayload(p content.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	c.PayloadJSON = raw
	return nil
}

// IsExpired reports whether the code has an expiry in the past.
func (c *ScannableCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
