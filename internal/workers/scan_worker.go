package workers

import (
	"github.com/sirupsen/logrus"

	"github.com/axellelanca/qrforge/internal/models"
	"github.com/axellelanca/qrforge/internal/services"
)

// StartScanWorkers launches a pool of worker goroutines to record scan
// events asynchronously. Resolution handlers enqueue observations on
// the channel and return immediately; the workers commit the counter
// increment and event append behind them. Workers exit when the channel
// is closed.
func StartScanWorkers(workerCount int, events <-chan models.ScanEventMsg, resolver *services.ResolverService, log *logrus.Logger) {
	log.Infof("starting %d scan worker(s)", workerCount)

	for i := 0; i < workerCount; i++ {
		go scanWorker(events, resolver, log)
	}
}

func scanWorker(events <-chan models.ScanEventMsg, resolver *services.ResolverService, log *logrus.Logger) {
	for msg := range events {
		// Recording failure is logged with the code id and swallowed:
		// the scanning client already got its response.
		if err := resolver.RecordScan(msg); err != nil {
			log.WithField("code_id", msg.CodeID).WithError(err).Error("failed to record scan event")
		}
	}
}
