// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultGeoJSONURL is the Natural Earth 1:110m admin-0 country collection.
const DefaultGeoJSONURL = "https://raw.githubusercontent.com/vasturiano/react-globe.gl/master/example/datasets/ne_110m_admin_0_countries.geojson"

// SettingsReader is the subset of the settings repository used to override
// environment configuration at startup.
type SettingsReader interface {
	Get(key string) (*string, error)
}

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for all databases (always absolute)
	LogLevel     string
	Port         int
	DevMode      bool
	GeoJSONURL   string
	MarketAPIURL string // Optional upstream country/market API; empty means local data only

	Globe     GlobeConfig
	Schedules ScheduleConfig
	Snapshot  *SnapshotConfig
}

// GlobeConfig holds renderer and interaction tuning.
type GlobeConfig struct {
	AnimationDuration  time.Duration // Nominal camera animation length
	OverlayDelay       time.Duration // Fallback deadline for opening the overlay
	ResizeThrottle     time.Duration
	SearchOpensOverlay bool
	MaxLabels          int
	LabelThreshold     float64
	DragSensitivity    float64
}

// ScheduleConfig holds cron expressions for background jobs.
type ScheduleConfig struct {
	Refresh        string
	Cleanup        string
	GeometryRetry  string
	SnapshotUpload string
	Maintenance    string
}

// SnapshotConfig holds the S3-compatible bucket used for globe snapshots.
type SnapshotConfig struct {
	Bucket    string
	Endpoint  string // Empty for AWS, set for R2/MinIO
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether snapshot uploads are configured.
func (s *SnapshotConfig) Enabled() bool {
	return s != nil && s.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("MARKETGLOBE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("PORT", 8001),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		GeoJSONURL:   getEnv("GEOJSON_URL", DefaultGeoJSONURL),
		MarketAPIURL: strings.TrimRight(getEnv("MARKET_API_URL", ""), "/"),
		Globe: GlobeConfig{
			AnimationDuration:  getEnvAsDuration("ANIMATION_DURATION", time.Second),
			OverlayDelay:       getEnvAsDuration("OVERLAY_DELAY", 1200*time.Millisecond),
			ResizeThrottle:     getEnvAsDuration("RESIZE_THROTTLE", 100*time.Millisecond),
			SearchOpensOverlay: getEnvAsBool("SEARCH_OPENS_OVERLAY", true),
			MaxLabels:          getEnvAsInt("MAX_LABELS", 7),
			LabelThreshold:     getEnvAsFloat("LABEL_THRESHOLD", 2.0),
			DragSensitivity:    getEnvAsFloat("DRAG_SENSITIVITY", 1.0),
		},
		Schedules: ScheduleConfig{
			Refresh:        getEnv("REFRESH_SCHEDULE", "@every 5m"),
			Cleanup:        getEnv("CLEANUP_SCHEDULE", "@hourly"),
			GeometryRetry:  getEnv("GEOMETRY_RETRY_SCHEDULE", "@every 30s"),
			SnapshotUpload: getEnv("SNAPSHOT_SCHEDULE", "@every 1h"),
			Maintenance:    getEnv("MAINTENANCE_SCHEDULE", "@daily"),
		},
		Snapshot: loadSnapshotConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings overrides values with entries from the settings table.
// Settings DB values take precedence over environment variables when non-empty.
func (c *Config) UpdateFromSettings(settings SettingsReader) error {
	marketURL, err := settings.Get("market_api_url")
	if err != nil {
		return fmt.Errorf("failed to get market_api_url from settings: %w", err)
	}
	if marketURL != nil && *marketURL != "" {
		c.MarketAPIURL = strings.TrimRight(*marketURL, "/")
	}

	geoURL, err := settings.Get("geojson_url")
	if err != nil {
		return fmt.Errorf("failed to get geojson_url from settings: %w", err)
	}
	if geoURL != nil && *geoURL != "" {
		c.GeoJSONURL = *geoURL
	}

	searchOpens, err := settings.Get("search_opens_overlay")
	if err != nil {
		return fmt.Errorf("failed to get search_opens_overlay from settings: %w", err)
	}
	if searchOpens != nil && *searchOpens != "" {
		if v, err := strconv.ParseBool(*searchOpens); err == nil {
			c.Globe.SearchOpensOverlay = v
		}
	}

	return c.Validate()
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.GeoJSONURL == "" {
		return fmt.Errorf("GEOJSON_URL must not be empty")
	}
	if c.Globe.MaxLabels < 0 {
		return fmt.Errorf("MAX_LABELS must not be negative")
	}
	if c.Globe.OverlayDelay < c.Globe.AnimationDuration {
		return fmt.Errorf("OVERLAY_DELAY (%s) must not be shorter than ANIMATION_DURATION (%s)",
			c.Globe.OverlayDelay, c.Globe.AnimationDuration)
	}
	if c.Globe.DragSensitivity <= 0 {
		return fmt.Errorf("DRAG_SENSITIVITY must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func loadSnapshotConfig() *SnapshotConfig {
	return &SnapshotConfig{
		Bucket:    getEnv("SNAPSHOT_S3_BUCKET", ""),
		Endpoint:  getEnv("SNAPSHOT_S3_ENDPOINT", ""),
		Region:    getEnv("SNAPSHOT_S3_REGION", "auto"),
		AccessKey: getEnv("SNAPSHOT_S3_ACCESS_KEY", ""),
		SecretKey: getEnv("SNAPSHOT_S3_SECRET_KEY", ""),
		Prefix:    getEnv("SNAPSHOT_S3_PREFIX", "globe-snapshots/"),
	}
}
