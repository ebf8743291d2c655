package monitor

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/axellelanca/qrforge/internal/repository"
)

// ExpiryMonitor periodically sweeps Active codes whose expiry timestamp
// has passed and flips them to Expired. Resolution already gates on
// expires_at itself, so the sweep only keeps the stored status honest
// for listings and exports.
type ExpiryMonitor struct {
	codeRepo repository.CodeRepository
	interval time.Duration
	log      *logrus.Logger
}

// NewExpiryMonitor creates and returns a new ExpiryMonitor.
// interval determines how frequently the sweep runs.
func NewExpiryMonitor(codeRepo repository.CodeRepository, interval time.Duration, log *logrus.Logger) *ExpiryMonitor {
	return &ExpiryMonitor{
		codeRepo: codeRepo,
		interval: interval,
		log:      log,
	}
}

// Start launches the periodic sweep loop. This is a blocking function
// that runs until the program stops.
func (m *ExpiryMonitor) Start() {
	m.log.Infof("starting expiry monitor with interval of %v", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Immediate sweep on startup before waiting for the first tick.
	m.sweep()

	for range ticker.C {
		m.sweep()
	}
}

func (m *ExpiryMonitor) sweep() {
	expired, err := m.codeRepo.ExpireDue(time.Now())
	if err != nil {
		m.log.WithError(err).Error("expiry sweep failed")
		return
	}
	if expired > 0 {
		m.log.WithField("count", expired).Info("codes marked expired")
	}
}
