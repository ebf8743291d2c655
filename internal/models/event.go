package models

import "time"

// EventType classifies analytics events.
type EventType string

const (
	EventScan     EventType = "scan"
	EventView     EventType = "view"
	EventClick    EventType = "click"
	EventDownload EventType = "download"
	EventShare    EventType = "share"
	EventError    EventType = "error"
)

// AnalyticsEvent is an append-only analytics record. Rows are never
// updated or deleted individually; retention and export are external
// concerns.
type AnalyticsEvent struct {
	// ID is a UUID assigned at append time
	ID string `gorm:"primaryKey;size:36"`

	// ScannableCodeID references the code the event belongs to
	ScannableCodeID uint `gorm:"index;not null"`

	EventType EventType `gorm:"size:16;not null"`

	// Timestamp is the resolution time, not the storage time
	Timestamp time.Time `gorm:"not null;index"`

	// SessionID is a one-way digest of (client IP, user agent, calendar
	// day). Day-granular and irreversible: the same visitor scanning
	// twice in one day shares a session id, and no row can be reversed
	// into raw IP/UA data.
	SessionID string `gorm:"size:64;index"`

	// Metadata is an opaque structured blob (JSON)
	Metadata []byte
}

// ScanEventMsg is a raw scan observation intended to be passed through
// channels between the resolver and the recording workers. It carries
// the raw client fingerprint; only the derived session id is persisted.
type ScanEventMsg struct {
	CodeID    uint      // The ID of the code that was scanned
	EventType EventType // Scan for resolutions, Click for link taps
	LinkID    string    // Set for Click events on multi-destination links
	Timestamp time.Time // When the resolution happened
	UserAgent string    // Browser/client information
	IPAddress string    // Client IP, digested into the session id
}
