package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Interval returns the time between backups, one day by default.
func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

type Config struct {
	Database struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address            string `yaml:"address"`
		Password           string `yaml:"password"`
		DB                 int    `yaml:"db"`
		SnapshotTTLSeconds int    `yaml:"snapshot_ttl_seconds"`
	} `yaml:"redis"`

	HTTP struct {
		Port               int    `yaml:"port"`
		APIKey             string `yaml:"api_key"`
		RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	} `yaml:"http"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		MaxAdvanceDays  int    `yaml:"max_advance_days"`
		MaxDurationDays int    `yaml:"max_duration_days"`
		Timezone        string `yaml:"timezone"`
	} `yaml:"booking"`

	Catalog struct {
		Path                  string `yaml:"path"`
		ReloadIntervalSeconds int    `yaml:"reload_interval_seconds"`
	} `yaml:"catalog"`

	Backup BackupConfig `yaml:"backup"`

	Telegram struct {
		BotToken       string  `yaml:"bot_token"`
		ManagerChatIDs []int64 `yaml:"manager_chat_ids"`
		DigestHour     int     `yaml:"digest_hour"`
	} `yaml:"telegram"`

	Google struct {
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SheetName       string `yaml:"sheet_name"`
	} `yaml:"google"`

	Logging struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Database.Driver == DriverSQLite {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/coworking.db"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Booking.MaxAdvanceDays <= 0 {
		c.Booking.MaxAdvanceDays = 30
	}
	if c.Booking.MaxDurationDays <= 0 {
		c.Booking.MaxDurationDays = 365
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/catalog.yaml"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Reservations"
	}
	if c.Telegram.DigestHour <= 0 || c.Telegram.DigestHour > 23 {
		c.Telegram.DigestHour = 9
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Location returns the zone "today" is evaluated in. Unknown zones fall back to UTC.
func (c *Config) Location() *time.Location {
	if c.Booking.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SnapshotTTL() time.Duration {
	if c.Redis.SnapshotTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Redis.SnapshotTTLSeconds) * time.Second
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadIntervalSeconds) * time.Second
}
