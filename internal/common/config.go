package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store StoreConfig
	OCR   OCRConfig
	Cloud CloudConfig
}

// StoreConfig holds document-store configuration
type StoreConfig struct {
	Path string
}

// OCRConfig holds local-engine and preprocessing configuration
type OCRConfig struct {
	Language    string
	TessdataDir string
	ArtifactDir string
}

// CloudConfig holds the cloud vision backend configuration. The core only
// consumes Enabled plus the opaque credential pair; where these values come
// from is the settings collaborator's concern.
type CloudConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cloudEndpoint := getEnv("VISION_ENDPOINT", "")
	cloudKey := getEnv("VISION_API_KEY", "")
	return &Config{
		Store: StoreConfig{
			Path: getEnv("DOCUSCAN_DB", "docuscan.db"),
		},
		OCR: OCRConfig{
			Language:    getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			ArtifactDir: getEnv("ARTIFACT_CACHE_DIR", os.TempDir()),
		},
		Cloud: CloudConfig{
			Enabled:  getEnvAsBool("VISION_ENABLED", false) && cloudEndpoint != "" && cloudKey != "",
			Endpoint: cloudEndpoint,
			APIKey:   cloudKey,
			Timeout:  getEnvAsDuration("VISION_TIMEOUT", 30*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
