package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TimeOfDay is a local wall-clock time for a daily phase
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String returns the HH:MM representation
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant of this wall-clock time on the given day
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// ParseTimeOfDay parses an HH:MM string
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Config holds all configuration for the application
type Config struct {
	// Telegram Bot configuration
	BotToken string

	// Storage configuration
	DataDir string

	// Schedule configuration
	Location  *time.Location
	SurveyAt  TimeOfDay
	CutoffAt  TimeOfDay
	SettleAt  TimeOfDay
	SweepAt   TimeOfDay
	RestDays  map[time.Weekday]bool

	// Pricing configuration
	DefaultPrice        int64
	LowBalanceThreshold int64

	// Optional HTTP admin listener, disabled when empty
	AdminAddr string
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{}

	// Required configurations
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	cfg.BotToken = botToken

	// Optional configurations with defaults
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "./data")
	cfg.AdminAddr = os.Getenv("ADMIN_ADDR")

	tzName := getEnvWithDefault("TIMEZONE", "Asia/Tashkent")
	cfg.Location, err = time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	if cfg.SurveyAt, err = ParseTimeOfDay(getEnvWithDefault("SURVEY_TIME", "07:00")); err != nil {
		return nil, fmt.Errorf("invalid SURVEY_TIME: %w", err)
	}
	if cfg.CutoffAt, err = ParseTimeOfDay(getEnvWithDefault("CUTOFF_TIME", "10:00")); err != nil {
		return nil, fmt.Errorf("invalid CUTOFF_TIME: %w", err)
	}
	if cfg.SettleAt, err = ParseTimeOfDay(getEnvWithDefault("SETTLE_TIME", "10:05")); err != nil {
		return nil, fmt.Errorf("invalid SETTLE_TIME: %w", err)
	}
	if cfg.SweepAt, err = ParseTimeOfDay(getEnvWithDefault("SWEEP_TIME", "12:00")); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_TIME: %w", err)
	}

	cfg.RestDays, err = parseRestDays(getEnvWithDefault("REST_DAYS", "Saturday,Sunday"))
	if err != nil {
		return nil, err
	}

	if cfg.DefaultPrice, err = parsePrice("DEFAULT_PRICE", "25000"); err != nil {
		return nil, err
	}
	if cfg.LowBalanceThreshold, err = parsePrice("LOW_BALANCE_THRESHOLD", "100000"); err != nil {
		return nil, err
	}

	// Log configuration with sensitive data redacted
	logToken := cfg.BotToken
	if len(logToken) > 8 {
		logToken = logToken[:8] + "...REDACTED..."
	}
	log.Printf("Configuration loaded: token=%s tz=%s survey=%s cutoff=%s settle=%s sweep=%s price=%d",
		logToken, tzName, cfg.SurveyAt, cfg.CutoffAt, cfg.SettleAt, cfg.SweepAt, cfg.DefaultPrice)
	return cfg, nil
}

// parseRestDays parses a comma-separated weekday name list
func parseRestDays(s string) (map[time.Weekday]bool, error) {
	rest := make(map[time.Weekday]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %q in REST_DAYS", name)
		}
		rest[day] = true
	}
	return rest, nil
}

func parsePrice(key, defaultValue string) (int64, error) {
	v, err := strconv.ParseInt(getEnvWithDefault(key, defaultValue), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return v, nil
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
