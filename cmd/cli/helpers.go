package cli

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/axellelanca/qrforge/internal/config"
)

// openDatabase connects to the configured SQLite database. The caller
// is responsible for closing the underlying connection.
func openDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	return db, func() { sqlDB.Close() }, nil
}

// newCLILogger builds the logger used by one-shot CLI commands.
func newCLILogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return log
}
