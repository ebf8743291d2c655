package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/axellelanca/qrforge/internal/content"
	apperrors "github.com/axellelanca/qrforge/internal/errors"
	"github.com/axellelanca/qrforge/internal/models"
	"github.com/axellelanca/qrforge/internal/repository"
)

// Outcome is the state a resolution reaches.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeNotFound Outcome = "not_found"
	OutcomeExpired  Outcome = "expired"
	OutcomeInactive Outcome = "inactive"
)

// Resolution is the result of resolving a short code. For the Resolved
// outcome Payload is the code's current content, decoded fresh from
// storage, never a frozen copy from creation time. For multi-destination
// pages ActiveLinks carries the link subset visible right now.
type Resolution struct {
	Outcome     Outcome
	Code        *models.ScannableCode
	Payload     content.Payload
	ActiveLinks []content.LinkEntry
}

// ResolverService implements the public scan path: short code in,
// resolution out, with the analytics recording contract around it.
type ResolverService struct {
	codeRepo  repository.CodeRepository
	eventRepo repository.EventRepository
	log       *logrus.Logger
}

// NewResolverService creates and returns a new ResolverService.
func NewResolverService(codeRepo repository.CodeRepository, eventRepo repository.EventRepository, log *logrus.Logger) *ResolverService {
	return &ResolverService{codeRepo: codeRepo, eventRepo: eventRepo, log: log}
}

// Resolve walks the resolution state machine: lookup, status gate,
// expiry gate, then the live payload. The three rejection outcomes are
// first-class results, not errors; only infrastructure failure returns
// a non-nil error. Scan recording is not done here — the caller
// enqueues the scan observation so recording can never block or fail
// the resolution response.
func (s *ResolverService) Resolve(shortCode string, now time.Time) (Resolution, error) {
	code, err := s.codeRepo.GetCodeByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{Outcome: OutcomeNotFound}, nil
		}
		return Resolution{}, fmt.Errorf("failed to look up short code: %w", err)
	}

	if code.Status != models.StatusActive {
		return Resolution{Outcome: OutcomeInactive, Code: code}, nil
	}
	if code.IsExpired(now) {
		return Resolution{Outcome: OutcomeExpired, Code: code}, nil
	}

	payload, err := code.Payload()
	if err != nil {
		// Stored payload failing its own kind's schema is an
		// infrastructure-grade corruption, logged with the code id.
		s.log.WithFields(logrus.Fields{"code_id": code.ID, "kind": code.Kind}).
			WithError(err).Error("stored payload is corrupted")
		return Resolution{}, fmt.Errorf("corrupted payload for code %d: %w", code.ID, err)
	}

	res := Resolution{Outcome: OutcomeResolved, Code: code, Payload: payload}
	if page, ok := payload.(content.MultiDestinationPayload); ok {
		res.ActiveLinks = content.ActiveLinks(page.Links, now)
	}
	return res, nil
}

// SessionID derives the analytics session identifier: a one-way digest
// of (client IP, user agent, calendar day). Day-granular so repeat
// scans by the same visitor on the same day share an id, irreversible
// so no stored event can be turned back into IP or UA data.
func SessionID(ip, userAgent string, day time.Time) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + day.UTC().Format("2006-01-02")))
	return hex.EncodeToString(sum[:])
}

// RecordScan commits one scan observation: counter increment plus event
// append as a single unit of work. Failures are logged and wrapped,
// never surfaced to the scanning client (the resolution response has
// already been sent by then).
func (s *ResolverService) RecordScan(msg models.ScanEventMsg) error {
	eventType := msg.EventType
	if eventType == "" {
		eventType = models.EventScan
	}

	var metadata []byte
	if msg.LinkID != "" {
		metadata, _ = json.Marshal(map[string]string{"link_id": msg.LinkID})
	}

	event := &models.AnalyticsEvent{
		ID:              uuid.NewString(),
		ScannableCodeID: msg.CodeID,
		EventType:       eventType,
		Timestamp:       msg.Timestamp,
		SessionID:       SessionID(msg.IPAddress, msg.UserAgent, msg.Timestamp),
		Metadata:        metadata,
	}

	// Only true scans drive the code's scan counter; sub-interactions
	// such as link clicks are plain append-only events.
	if eventType == models.EventScan {
		if err := s.codeRepo.RecordScan(msg.CodeID, event); err != nil {
			return apperrors.ErrScanRecordingFailed{CodeID: msg.CodeID, Reason: err.Error()}
		}
		return nil
	}
	if err := s.eventRepo.CreateEvent(event); err != nil {
		return apperrors.ErrScanRecordingFailed{CodeID: msg.CodeID, Reason: err.Error()}
	}
	return nil
}

// RecordLinkClick registers a tap on one link of a multi-destination
// page: an append-only Click event plus the link's own click counter
// inside the stored payload.
func (s *ResolverService) RecordLinkClick(shortCode, linkID string, msg models.ScanEventMsg) error {
	code, err := s.codeRepo.GetCodeByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCodeNotFound
		}
		return err
	}

	payload, err := code.Payload()
	if err != nil {
		return fmt.Errorf("corrupted payload for code %d: %w", code.ID, err)
	}
	page, ok := payload.(content.MultiDestinationPayload)
	if !ok {
		return fmt.Errorf("code %d is not a multi-destination page", code.ID)
	}

	found := false
	for i := range page.Links {
		if page.Links[i].ID == linkID {
			page.Links[i].ClickCount++
			found = true
			break
		}
	}
	if !found {
		return apperrors.ErrCodeNotFound
	}

	if err := code.SetPayload(page); err != nil {
		return err
	}
	if err := s.codeRepo.UpdateCode(code); err != nil {
		return err
	}

	msg.CodeID = code.ID
	msg.EventType = models.EventClick
	msg.LinkID = linkID
	return s.RecordScan(msg)
}
