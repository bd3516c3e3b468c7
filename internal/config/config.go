package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"apptbook/internal/models"
	"apptbook/internal/schedule"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Admin      AdminConfig      `yaml:"admin"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Email      EmailConfig      `yaml:"email"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionsConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

func (c SessionsConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// AdminConfig seeds the bootstrap admin account at startup. Without it a
// fresh install has no account able to grant the employee or admin role.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// ScheduleConfig drives the calendar view: which two weekdays are
// bookable, how far ahead, the slot window and cadence, and the static
// holiday exclusion list (canonical YYYY-MM-DD strings).
type ScheduleConfig struct {
	WeeksAhead          int      `yaml:"weeks_ahead"`
	Weekdays            []string `yaml:"weekdays"`
	DayStart            string   `yaml:"day_start"`
	DayEnd              string   `yaml:"day_end"`
	SlotIntervalMinutes int      `yaml:"slot_interval_minutes"`
	AppointmentMinutes  int      `yaml:"appointment_minutes"`
	Holidays            []string `yaml:"holidays"`
}

// WeekdayPair resolves the configured weekday names.
func (c ScheduleConfig) WeekdayPair() ([2]time.Weekday, error) {
	if len(c.Weekdays) != 2 {
		return [2]time.Weekday{}, fmt.Errorf("schedule.weekdays needs exactly 2 entries, got %d", len(c.Weekdays))
	}
	var out [2]time.Weekday
	for i, name := range c.Weekdays {
		day, err := parseWeekday(name)
		if err != nil {
			return [2]time.Weekday{}, err
		}
		out[i] = day
	}
	return out, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday: %q", name)
}

type EmailConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// TelegramConfig configures the ops alert channel: new bookings and
// cancellations are mirrored into a staff chat.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; config values may reference its variables.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand environment variables inside the YAML before parsing.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if _, err := c.Schedule.WeekdayPair(); err != nil {
		return err
	}
	if _, ok := schedule.NormalizeClock(c.Schedule.DayStart); !ok {
		return fmt.Errorf("invalid schedule.day_start: %q", c.Schedule.DayStart)
	}
	if _, ok := schedule.NormalizeClock(c.Schedule.DayEnd); !ok {
		return fmt.Errorf("invalid schedule.day_end: %q", c.Schedule.DayEnd)
	}
	if c.Schedule.SlotIntervalMinutes <= 0 {
		return errors.New("schedule.slot_interval_minutes must be positive")
	}
	for _, h := range c.Schedule.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("invalid holiday date %q: %w", h, err)
		}
	}

	if c.Admin.Email != "" && len(c.Admin.Password) < 8 {
		return errors.New("admin.email set but admin.password is missing or too short")
	}

	if c.Email.Enabled && c.Email.APIKey == "" {
		return errors.New("email enabled but api_key is empty")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return errors.New("telegram enabled but bot_token/chat_id not set")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Sessions.TTLSeconds == 0 {
		c.Sessions.TTLSeconds = models.DefaultSessionTTL
	}

	if c.Schedule.WeeksAhead == 0 {
		c.Schedule.WeeksAhead = models.DefaultWeeksAhead
	}
	if len(c.Schedule.Weekdays) == 0 {
		c.Schedule.Weekdays = []string{"Tuesday", "Thursday"}
	}
	if c.Schedule.DayStart == "" {
		c.Schedule.DayStart = models.DefaultDayStart
	}
	if c.Schedule.DayEnd == "" {
		c.Schedule.DayEnd = models.DefaultDayEnd
	}
	if c.Schedule.SlotIntervalMinutes == 0 {
		c.Schedule.SlotIntervalMinutes = models.DefaultSlotIntervalMinutes
	}
	if c.Schedule.AppointmentMinutes == 0 {
		c.Schedule.AppointmentMinutes = models.DefaultAppointmentMinutes
	}

	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
}
