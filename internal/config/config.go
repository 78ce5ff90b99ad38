package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Report    ReportConfig    `mapstructure:"report"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Teams     TeamsConfig     `mapstructure:"teams"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WarehouseConfig holds the local warehouse mirror configuration
type WarehouseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// HarvestConfig holds the time-tracking API configuration
type HarvestConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AccountID    string        `mapstructure:"account_id"`
	AccessToken  string        `mapstructure:"access_token"`
	CategoryID   int64         `mapstructure:"category_id"`
	CategoryName string        `mapstructure:"category_name"`
	APITimeout   time.Duration `mapstructure:"api_timeout"`
}

// SlackConfig holds the notification webhook configuration
type SlackConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ReportConfig holds report ingest configuration
type ReportConfig struct {
	InboxDir       string `mapstructure:"inbox_dir"`
	WorkDir        string `mapstructure:"work_dir"`
	OffsetDays     int    `mapstructure:"offset_days"`
	BillableAnswer string `mapstructure:"billable_answer"`
	ExcludeBooker  string `mapstructure:"exclude_booker"`
	ExpenseNote    string `mapstructure:"expense_note"`
}

// MatchingConfig holds assignment matcher configuration
type MatchingConfig struct {
	Confidence           int    `mapstructure:"confidence"`
	InternalClientMarker string `mapstructure:"internal_client_marker"`
	InternalClientName   string `mapstructure:"internal_client_name"`
}

// TeamsConfig maps "{department} {team}" (with a "{department}" fallback)
// to the internal cost-center project id used for non-billable rows.
// Injected rather than hard-coded so tests can substitute fixtures.
type TeamsConfig struct {
	Projects map[string]int64 `mapstructure:"projects"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("warehouse.path", "data/warehouse.db")
	viper.SetDefault("warehouse.max_open_conns", 25)
	viper.SetDefault("warehouse.max_idle_conns", 5)
	viper.SetDefault("warehouse.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("warehouse.migrations_dir", "migrations")

	viper.SetDefault("harvest.base_url", "https://api.harvestapp.com")
	viper.SetDefault("harvest.api_timeout", 30*time.Second)
	viper.SetDefault("harvest.category_name", "Travel - Business Account: Trainline")

	viper.SetDefault("slack.timeout", 10*time.Second)

	viper.SetDefault("report.inbox_dir", "data/reports")
	viper.SetDefault("report.work_dir", "data/work")
	viper.SetDefault("report.offset_days", 2)
	viper.SetDefault("report.billable_answer", "Billable Project Travel")
	viper.SetDefault("report.exclude_booker", "TPX LIMITED")
	viper.SetDefault("report.expense_note", "Trainline Business Account - do not reimburse")

	viper.SetDefault("matching.confidence", 75)
	viper.SetDefault("matching.internal_client_marker", "TPX")
	viper.SetDefault("matching.internal_client_name", "TPXimpact")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("harvest.account_id", "HARVEST_ACCOUNT_ID")
	viper.BindEnv("harvest.access_token", "HARVEST_ACCESS_TOKEN")
	viper.BindEnv("slack.webhook_url", "SLACK_WEBHOOK_URL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Harvest.AccountID == "" {
		return fmt.Errorf("harvest.account_id is required")
	}
	if c.Harvest.AccessToken == "" {
		return fmt.Errorf("harvest.access_token is required")
	}
	if c.Harvest.CategoryID == 0 {
		return fmt.Errorf("harvest.category_id is required")
	}
	if c.Slack.WebhookURL == "" {
		return fmt.Errorf("slack.webhook_url is required")
	}
	if len(c.Teams.Projects) == 0 {
		return fmt.Errorf("teams.projects mapping is required")
	}
	return nil
}

// ProcessingDate returns the booking date whose rows this run reconciles,
// offset back from now and truncated to the day.
func (c ReportConfig) ProcessingDate(now time.Time) time.Time {
	d := now.AddDate(0, 0, -c.OffsetDays)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
