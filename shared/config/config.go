// shared/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Notification bus backends.
const (
	NotifyBackendMemory = "memory"
	NotifyBackendRedis  = "redis"
	NotifyBackendNATS   = "nats"
)

// Profile store backends.
const (
	ProfileBackendMemory = "memory"
	ProfileBackendMongo  = "mongo"
)

// CommonConfig holds connection settings for the shared infrastructure.
type CommonConfig struct {
	RedisAddrs    []string `yaml:"redis_addrs"`    // Redis server addresses (e.g., "localhost:6379")
	RedisPassword string   `yaml:"redis_password"` // Redis password for authentication
	NATSURL       string   `yaml:"nats_url"`       // NATS server for the Watermill bus backend
	LogLevel      string   `yaml:"log_level"`      // DEBUG, INFO, WARN or ERROR
}

// CompetitionServiceConfig holds configuration specific to the competition-service.
type CompetitionServiceConfig struct {
	CommonConfig              `yaml:",inline"`
	ListenAddr                string        `yaml:"listen_addr"`              // Address for the HTTP server (e.g., ":8083")
	NotifyBackend             string        `yaml:"notify_backend"`           // memory, redis or nats
	NotifySubscriberBuffer    int           `yaml:"notify_subscriber_buffer"` // Bounded queue length per subscriber
	ProfileBackend            string        `yaml:"profile_backend"`          // memory or mongo
	MongoDBConnStr            string        `yaml:"mongodb_conn_str"`
	MongoDBDatabase           string        `yaml:"mongodb_database"`
	MongoDBProfilesCollection string        `yaml:"mongodb_profiles_collection"`
	DefaultTeamMaxMembers     int           `yaml:"default_team_max_members"`
	DefaultEventMaxTeams      int           `yaml:"default_event_max_teams"`
	RequestTimeout            time.Duration `yaml:"request_timeout"`
	ShutdownTimeout           time.Duration `yaml:"shutdown_timeout"`
	MetricsEnabled            bool          `yaml:"metrics_enabled"`
}

// DefaultCompetitionServiceConfig returns the configuration used when nothing is set.
func DefaultCompetitionServiceConfig() *CompetitionServiceConfig {
	return &CompetitionServiceConfig{
		CommonConfig: CommonConfig{
			RedisAddrs: []string{"localhost:6379"},
			NATSURL:    "nats://localhost:4222",
			LogLevel:   "INFO",
		},
		ListenAddr:                ":8083",
		NotifyBackend:             NotifyBackendMemory,
		NotifySubscriberBuffer:    64,
		ProfileBackend:            ProfileBackendMemory,
		MongoDBConnStr:            "mongodb://localhost:27017",
		MongoDBDatabase:           "speedrun",
		MongoDBProfilesCollection: "profiles",
		DefaultTeamMaxMembers:     4,
		DefaultEventMaxTeams:      50,
		RequestTimeout:            5 * time.Second,
		ShutdownTimeout:           10 * time.Second,
		MetricsEnabled:            true,
	}
}

// LoadCompetitionServiceConfig loads configuration for the competition-service:
// defaults, then the YAML file named by COMPETITION_CONFIG_FILE (if any), then
// environment variables.
func LoadCompetitionServiceConfig() (*CompetitionServiceConfig, error) {
	cfg := DefaultCompetitionServiceConfig()

	if path := os.Getenv("COMPETITION_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *CompetitionServiceConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (cfg *CompetitionServiceConfig) applyEnv() error {
	var err error

	if v := os.Getenv("REDIS_ADDRS"); v != "" {
		cfg.RedisAddrs = splitList(v)
	}
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.NATSURL, "NATS_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.ListenAddr, "COMPETITION_LISTEN_ADDR")
	setString(&cfg.NotifyBackend, "NOTIFY_BACKEND")
	setString(&cfg.ProfileBackend, "PROFILE_BACKEND")
	setString(&cfg.MongoDBConnStr, "MONGODB_CONN_STR")
	setString(&cfg.MongoDBDatabase, "MONGODB_DATABASE")
	setString(&cfg.MongoDBProfilesCollection, "MONGODB_PROFILES_COLLECTION")

	if cfg.NotifySubscriberBuffer, err = getInt("NOTIFY_SUBSCRIBER_BUFFER", cfg.NotifySubscriberBuffer); err != nil {
		return err
	}
	if cfg.DefaultTeamMaxMembers, err = getInt("DEFAULT_TEAM_MAX_MEMBERS", cfg.DefaultTeamMaxMembers); err != nil {
		return err
	}
	if cfg.DefaultEventMaxTeams, err = getInt("DEFAULT_EVENT_MAX_TEAMS", cfg.DefaultEventMaxTeams); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.MetricsEnabled, err = getBool("METRICS_ENABLED", cfg.MetricsEnabled); err != nil {
		return err
	}
	return nil
}

// Validate rejects unknown backends and non-positive limits.
func (cfg *CompetitionServiceConfig) Validate() error {
	cfg.NotifyBackend = strings.ToLower(strings.TrimSpace(cfg.NotifyBackend))
	cfg.ProfileBackend = strings.ToLower(strings.TrimSpace(cfg.ProfileBackend))

	switch cfg.NotifyBackend {
	case NotifyBackendMemory, NotifyBackendNATS:
	case NotifyBackendRedis:
		if len(cfg.RedisAddrs) == 0 {
			return fmt.Errorf("REDIS_ADDRS must be set when NOTIFY_BACKEND is %q", NotifyBackendRedis)
		}
	default:
		return fmt.Errorf("unknown NOTIFY_BACKEND %q (want memory, redis or nats)", cfg.NotifyBackend)
	}
	switch cfg.ProfileBackend {
	case ProfileBackendMemory, ProfileBackendMongo:
	default:
		return fmt.Errorf("unknown PROFILE_BACKEND %q (want memory or mongo)", cfg.ProfileBackend)
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.ListenAddr == "" {
		return fmt.Errorf("COMPETITION_LISTEN_ADDR must not be empty")
	}
	if cfg.NotifySubscriberBuffer <= 0 {
		return fmt.Errorf("NOTIFY_SUBSCRIBER_BUFFER must be a positive integer (got %d)", cfg.NotifySubscriberBuffer)
	}
	if cfg.DefaultTeamMaxMembers <= 0 {
		return fmt.Errorf("DEFAULT_TEAM_MAX_MEMBERS must be a positive integer (got %d)", cfg.DefaultTeamMaxMembers)
	}
	if cfg.DefaultEventMaxTeams <= 0 {
		return fmt.Errorf("DEFAULT_EVENT_MAX_TEAMS must be a positive integer (got %d)", cfg.DefaultEventMaxTeams)
	}
	if cfg.RequestTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT and SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// ParseLogLevel maps a LOG_LEVEL value onto a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func setString(dst *string, envKey string) {
	if v := os.Getenv(envKey); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

func getBool(envKey string, defaultVal bool) (bool, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("invalid boolean format for %s: %w", envKey, err)
	}
	return b, nil
}
