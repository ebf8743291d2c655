// Package services contains the business logic layer for the QR code service
package services

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/axellelanca/qrforge/internal/capacity"
	"github.com/axellelanca/qrforge/internal/content"
	apperrors "github.com/axellelanca/qrforge/internal/errors"
	"github.com/axellelanca/qrforge/internal/models"
	"github.com/axellelanca/qrforge/internal/repository"
)

// charset defines the character set used for generating short codes.
// Alphanumeric, both cases: 62^8 combinations for 8-character codes.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Renderer is the encoder adapter boundary: it accepts the final text,
// tolerance and pixel size and returns rendered image bytes. The core
// never touches the bit matrix.
type Renderer interface {
	Render(text string, tolerance content.ErrorTolerance, sizePx int) ([]byte, error)
}

// CodeService provides business logic for creating, editing and
// inspecting scannable codes.
type CodeService struct {
	codeRepo  repository.CodeRepository
	eventRepo repository.EventRepository
	renderer  Renderer
	log       *logrus.Logger

	baseURL string // prefix of generated short URLs
	codeLen int    // length of generated short codes
}

// NewCodeService creates and returns a new CodeService.
func NewCodeService(codeRepo repository.CodeRepository, eventRepo repository.EventRepository, renderer Renderer, log *logrus.Logger, baseURL string, codeLen int) *CodeService {
	return &CodeService{
		codeRepo:  codeRepo,
		eventRepo: eventRepo,
		renderer:  renderer,
		log:       log,
		baseURL:   strings.TrimRight(baseURL, "/"),
		codeLen:   codeLen,
	}
}

// CreateRequest carries everything a generation request needs.
type CreateRequest struct {
	Kind           content.Kind
	Mode           models.Mode
	Payload        json.RawMessage
	ErrorTolerance content.ErrorTolerance // optional; empty means recommend
	UseCase        capacity.UseCase
	HasLogo        bool
	SizePx         int
	Format         string
	Style          json.RawMessage
	Name           string
	Folder         string
	Tags           string
	Owner          string
	ExpiresAt      *time.Time
}

// CreateCode runs the full generation pipeline: decode and validate the
// payload, pick the error tolerance and version, serialize the encoded
// text, render the image and persist the code. Validation failures come
// back as apperrors.ValidationError; nothing is persisted for them.
func (s *CodeService) CreateCode(req CreateRequest) (*models.ScannableCode, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("unknown content kind %q", req.Kind)
	}
	if req.Mode != "" && !req.Mode.Valid() {
		return nil, apperrors.ValidationError{Errors: []string{fmt.Sprintf("mode must be static or dynamic, got %q", req.Mode)}}
	}

	payload, err := content.DecodePayload(req.Kind, req.Payload)
	if err != nil {
		return nil, apperrors.ValidationError{Errors: []string{err.Error()}}
	}

	result := content.Validate(payload)
	if !result.Valid {
		return nil, apperrors.ValidationError{Errors: result.Errors}
	}
	for _, w := range result.Warnings {
		s.log.WithFields(logrus.Fields{"kind": req.Kind, "warning": w}).Warn("content validation warning")
	}

	tolerance := s.pickTolerance(req)

	// Multi-destination pages live behind the indirection layer by
	// construction; they are always dynamic.
	mode := req.Mode
	if req.Kind == content.KindMultiDestination {
		mode = models.ModeDynamic
	}
	if mode == "" {
		mode = models.ModeStatic
	}

	code := &models.ScannableCode{
		Kind:           req.Kind,
		Mode:           mode,
		ErrorTolerance: tolerance,
		SizePx:         req.SizePx,
		OutputFormat:   req.Format,
		Style:          req.Style,
		Name:           req.Name,
		Folder:         req.Folder,
		Tags:           req.Tags,
		Owner:          req.Owner,
		Status:         models.StatusActive,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := code.SetPayload(payload); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	if mode == models.ModeDynamic {
		shortCode, err := s.generateUniqueShortCode()
		if err != nil {
			return nil, err
		}
		code.ShortCode = &shortCode
		code.EncodedText = content.SerializeShortURL(s.ShortURL(shortCode))
	} else {
		code.EncodedText = content.Serialize(payload)
	}

	code.Version = capacity.MinVersion(len(code.EncodedText), tolerance)

	image, err := s.renderer.Render(code.EncodedText, tolerance, req.SizePx)
	if err != nil {
		return nil, fmt.Errorf("failed to render code image: %w", err)
	}
	code.Image = image

	if err := s.codeRepo.CreateCode(code); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"code_id": code.ID,
		"kind":    code.Kind,
		"mode":    code.Mode,
		"version": code.Version,
	}).Info("code created")
	return code, nil
}

// pickTolerance resolves the effective error tolerance. An explicit
// caller request wins for most kinds; the Wifi/Payment High override is
// absolute and beats even an explicit request.
func (s *CodeService) pickTolerance(req CreateRequest) content.ErrorTolerance {
	if req.Kind == content.KindWifi || req.Kind == content.KindPayment {
		return content.ToleranceHigh
	}
	if req.ErrorTolerance.Valid() {
		return req.ErrorTolerance
	}
	return capacity.RecommendErrorTolerance(req.Kind, req.UseCase, req.HasLogo)
}

// generateUniqueShortCode generates a short code with collision
// detection and retry. The namespace is checked against the store
// before use and the unique index backs it up.
func (s *CodeService) generateUniqueShortCode() (string, error) {
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		code, err := GenerateShortCode(s.codeLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		_, err = s.codeRepo.GetCodeByShortCode(code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code, nil
			}
			return "", fmt.Errorf("database error checking short code uniqueness: %w", err)
		}

		s.log.WithField("short_code", code).Warnf("short code collision, retrying (%d/%d)", i+1, maxRetries)
	}

	return "", apperrors.ErrShortCodeGenerationFailed
}

// GenerateShortCode generates a cryptographically secure random short
// code of the given length.
func GenerateShortCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// ShortURL builds the public URL for a short code.
func (s *CodeService) ShortURL(shortCode string) string {
	return s.baseURL + "/" + shortCode
}

// UpdateDestination replaces a dynamic code's payload. The new payload
// must validate against the code's original kind; the printed image is
// never touched, which is the entire point of dynamic mode. A non-empty
// owner must match the code's owner; mismatches read as not-found.
func (s *CodeService) UpdateDestination(shortCode, owner string, rawPayload json.RawMessage) (*models.ScannableCode, error) {
	code, err := s.codeRepo.GetCodeByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCodeNotFound
		}
		return nil, err
	}
	if owner != "" && code.Owner != owner {
		return nil, apperrors.ErrCodeNotFound
	}
	if code.Mode != models.ModeDynamic {
		return nil, apperrors.ErrNotDynamic
	}

	payload, err := content.DecodePayload(code.Kind, rawPayload)
	if err != nil {
		return nil, apperrors.ValidationError{Errors: []string{err.Error()}}
	}
	result := content.Validate(payload)
	if !result.Valid {
		return nil, apperrors.ValidationError{Errors: result.Errors}
	}

	if err := code.SetPayload(payload); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := s.codeRepo.UpdateCode(code); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"code_id": code.ID, "short_code": shortCode}).Info("destination updated")
	return code, nil
}

// EditOptions are the mutable fields of an existing code.
type EditOptions struct {
	Payload        json.RawMessage // nil keeps the current payload
	ErrorTolerance content.ErrorTolerance
	SizePx         int
	Format         string
	Style          json.RawMessage
	Status         models.Status
	ExpiresAt      *time.Time
}

// EditCode applies changes to a code, re-validating the payload against
// the code's own kind and re-rendering the image only when an
// encoding-relevant field changed (for static codes the encoded text
// follows the payload, so payload edits regenerate the image).
func (s *CodeService) EditCode(id uint, opts EditOptions) (*models.ScannableCode, error) {
	old, err := s.codeRepo.GetCodeByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCodeNotFound
		}
		return nil, err
	}

	updated := *old
	if opts.Payload != nil {
		payload, err := content.DecodePayload(old.Kind, opts.Payload)
		if err != nil {
			return nil, apperrors.ValidationError{Errors: []string{err.Error()}}
		}
		result := content.Validate(payload)
		if !result.Valid {
			return nil, apperrors.ValidationError{Errors: result.Errors}
		}
		if err := updated.SetPayload(payload); err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		if old.Mode == models.ModeStatic {
			updated.EncodedText = content.Serialize(payload)
		}
	}
	if opts.ErrorTolerance.Valid() {
		updated.ErrorTolerance = opts.ErrorTolerance
	}
	// The Wifi/Payment override survives edits too.
	if old.Kind == content.KindWifi || old.Kind == content.KindPayment {
		updated.ErrorTolerance = content.ToleranceHigh
	}
	if opts.SizePx > 0 {
		updated.SizePx = opts.SizePx
	}
	if opts.Format != "" {
		updated.OutputFormat = opts.Format
	}
	if opts.Style != nil {
		updated.Style = opts.Style
	}
	if opts.Status != "" {
		updated.Status = opts.Status
	}
	if opts.ExpiresAt != nil {
		updated.ExpiresAt = opts.ExpiresAt
	}

	if RequiresRegeneration(old, &updated) {
		updated.Version = capacity.MinVersion(len(updated.EncodedText), updated.ErrorTolerance)
		image, err := s.renderer.Render(updated.EncodedText, updated.ErrorTolerance, updated.SizePx)
		if err != nil {
			return nil, fmt.Errorf("failed to re-render code image: %w", err)
		}
		updated.Image = image
	}

	if err := s.codeRepo.UpdateCode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RequiresRegeneration reports whether an edit changed anything that is
// baked into the rendered image. Pure over the two snapshots; payload
// edits on dynamic codes never trigger it because only the short URL is
// encoded.
func RequiresRegeneration(old, updated *models.ScannableCode) bool {
	return old.EncodedText != updated.EncodedText ||
		old.ErrorTolerance != updated.ErrorTolerance ||
		old.SizePx != updated.SizePx ||
		old.OutputFormat != updated.OutputFormat ||
		!bytes.Equal(old.Style, updated.Style)
}

// Stats is the read-only analytics summary for one code.
type Stats struct {
	Code           *models.ScannableCode
	TotalScans     int64
	UniqueVisitors int64
	LinkClicks     int64
}

// GetCodeStats retrieves a code and its scan statistics by short code.
func (s *CodeService) GetCodeStats(shortCode string) (*Stats, error) {
	code, err := s.codeRepo.GetCodeByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCodeNotFound
		}
		return nil, err
	}

	uniques, err := s.eventRepo.CountUniqueSessions(code.ID)
	if err != nil {
		return nil, err
	}
	clicks, err := s.eventRepo.CountEventsByCodeID(code.ID, models.EventClick)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Code:           code,
		TotalScans:     code.ScanCount,
		UniqueVisitors: uniques,
		LinkClicks:     clicks,
	}, nil
}

// ListCodes returns every code belonging to an owner, newest first.
func (s *CodeService) ListCodes(owner string) ([]models.ScannableCode, error) {
	return s.codeRepo.ListCodesByOwner(owner)
}

// ListEvents returns the most recent analytics events for one owned
// code. Ownership mismatches read as not-found, same as the other
// owner-scoped reads.
func (s *CodeService) ListEvents(shortCode, owner string, limit int) ([]models.AnalyticsEvent, error) {
	code, err := s.codeRepo.GetCodeByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCodeNotFound
		}
		return nil, err
	}
	if owner != "" && code.Owner != owner {
		return nil, apperrors.ErrCodeNotFound
	}
	return s.eventRepo.ListEventsByCodeID(code.ID, limit)
}

// DeleteCode removes an owned code permanently. Its analytics events
// are retained; a deleted short code stops resolving immediately.
func (s *CodeService) DeleteCode(shortCode, owner string) error {
	code, err := s.codeRepo.GetCodeByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCodeNotFound
		}
		return err
	}
	if owner != "" && code.Owner != owner {
		return apperrors.ErrCodeNotFound
	}
	if err := s.codeRepo.DeleteCode(code.ID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"code_id": code.ID, "short_code": shortCode}).Info("code deleted")
	return nil
}
