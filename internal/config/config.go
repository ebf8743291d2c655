package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application
// configuration. mapstructure tags map YAML/env keys to struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port
		BaseURL string `mapstructure:"base_url"` // Base URL for generated short links
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Analytics configuration for asynchronous scan tracking
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`  // Size of the scan event channel buffer
		WorkerCount int `mapstructure:"worker_count"` // Number of worker goroutines recording scans
	} `mapstructure:"analytics"`

	// ShortCode configuration for the dynamic-code namespace
	ShortCode struct {
		Length int `mapstructure:"length"` // Length of generated short codes
	} `mapstructure:"shortcode"`

	// QR rendering defaults handed to the encoder adapter
	QR struct {
		DefaultSizePx int `mapstructure:"default_size_px"` // Default image size in pixels
	} `mapstructure:"qr"`

	// Auth configuration for owner-scoped API endpoints
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"` // HMAC secret for bearer tokens
	} `mapstructure:"auth"`

	// Monitor configuration for the expiry sweep
	Monitor struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // Minutes between expiry sweeps
	} `mapstructure:"monitor"`
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration
// files, with defaults for every key.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()

	// "server.port" becomes the SERVER_PORT environment variable
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.name", "qrforge.db")
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("shortcode.length", 8)
	viper.SetDefault("qr.default_size_px", 512)
	viper.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	viper.SetDefault("monitor.interval_minutes", 5)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal, the defaults above apply.
			logrus.Info("config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"database": cfg.Database.Name,
		"buffer":   cfg.Analytics.BufferSize,
		"workers":  cfg.Analytics.WorkerCount,
	}).Info("configuration loaded")

	return &cfg, nil
}
