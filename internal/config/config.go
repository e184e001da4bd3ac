// Package config handles configuration loading, validation, and persistence
// for the Veilgate gateway and its tooling.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir   = "config"
	DefaultConfigFile  = "config.json"
	DefaultGatewayPort = 7420
	DefaultAPIPort     = 5000
)

// Config is the root configuration structure for Veilgate.
type Config struct {
	mu   sync.RWMutex
	path string

	Gateway     GatewayData     `json:"gateway"`
	Application ApplicationData `json:"application"`
}

// GatewayData configures the frame ingest listener and handshake replies.
type GatewayData struct {
	BindAddress         string `json:"bind_address"`
	Port                int    `json:"port"`
	APIPort             int    `json:"api_port"`
	MaxSessions         int    `json:"max_sessions"`
	HandshakeTimeoutSec int    `json:"handshake_timeout_sec"`
	ReadTimeoutSec      int    `json:"read_timeout_sec"`

	// Values echoed back in HelloAck
	HeartbeatMS int    `json:"heartbeat_ms"`
	WorldName   string `json:"world_name"`
	MOTD        string `json:"motd"`
}

// ApplicationData contains tooling configuration around the gateway.
type ApplicationData struct {
	Timers   TimerData    `json:"timers"`
	Capture  CaptureData  `json:"capture"`
	MQTT     MQTTData     `json:"mqtt"`
	Security SecurityData `json:"security"`
	Logging  LoggingData  `json:"logging"`
}

// TimerData holds background task interval settings.
type TimerData struct {
	StatsSnapshotInterval int    `json:"stats_snapshot_interval_sec"`
	StaleSessionInterval  int    `json:"stale_session_interval_sec"`
	RetentionSweepTime    string `json:"retention_sweep_time"`
}

// CaptureData holds flight recorder settings.
type CaptureData struct {
	Enabled         bool   `json:"enabled"`
	Directory       string `json:"directory"`
	RetentionDays   int    `json:"retention_days"`
	MaxPayloadBytes int    `json:"max_payload_bytes"`
}

// MQTTData holds MQTT telemetry settings.
type MQTTData struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
}

// SecurityData holds API security settings.
type SecurityData struct {
	TLSEnabled     bool     `json:"tls_enabled"`
	TLSCertFile    string   `json:"tls_cert_file"`
	TLSKeyFile     string   `json:"tls_key_file"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
}

// LoggingData holds logging configuration.
type LoggingData struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayData{
			BindAddress:         "0.0.0.0",
			Port:                DefaultGatewayPort,
			APIPort:             DefaultAPIPort,
			MaxSessions:         256,
			HandshakeTimeoutSec: 30,
			ReadTimeoutSec:      60,
			HeartbeatMS:         5000,
			WorldName:           "veilgate",
			MOTD:                "",
		},
		Application: ApplicationData{
			Timers: TimerData{
				StatsSnapshotInterval: 60,
				StaleSessionInterval:  120,
				RetentionSweepTime:    "04:00",
			},
			Capture: CaptureData{
				Enabled:         true,
				Directory:       "data",
				RetentionDays:   7,
				MaxPayloadBytes: 1 << 16,
			},
			MQTT: MQTTData{
				Enabled: false,
				Port:    8883,
				UseTLS:  true,
			},
			Security: SecurityData{
				RateLimitRPS: 100,
			},
			Logging: LoggingData{
				Level:      "info",
				Directory:  "logs",
				MaxSizeMB:  10,
				MaxBackups: 5,
			},
		},
	}
}

// Load reads configuration from a JSON file, creating a default one on first run.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig() // Start with defaults, then overlay
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Msg("configuration loaded")

	// Re-save so config.json picks up fields added since it was written.
	if saveErr := cfg.Save(); saveErr != nil {
		log.Warn().Err(saveErr).Msg("failed to re-save config with updated defaults")
	}

	return cfg, nil
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetGateway returns a copy of the gateway configuration.
func (c *Config) GetGateway() GatewayData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Gateway
}

// SetGateway updates the gateway configuration.
func (c *Config) SetGateway(data GatewayData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gateway = data
}

// GetApplication returns a copy of the application configuration.
func (c *Config) GetApplication() ApplicationData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Application
}

// SetApplication updates the application configuration.
func (c *Config) SetApplication(data ApplicationData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Application = data
}

// UpdateGatewayField updates a single field in the gateway section by its
// JSON key, keeping the remaining fields intact.
func (c *Config) UpdateGatewayField(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, _ := json.Marshal(c.Gateway)
	m := make(map[string]interface{})
	json.Unmarshal(data, &m)

	if _, ok := m[key]; !ok {
		return fmt.Errorf("unknown gateway field %q", key)
	}
	m[key] = value

	updated, _ := json.Marshal(m)
	if err := json.Unmarshal(updated, &c.Gateway); err != nil {
		return fmt.Errorf("failed to update field %s: %w", key, err)
	}
	return nil
}

// UpdateAppField updates a single top-level field in the application section
// by its JSON key.
func (c *Config) UpdateAppField(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, _ := json.Marshal(c.Application)
	m := make(map[string]interface{})
	json.Unmarshal(data, &m)

	if _, ok := m[key]; !ok {
		return fmt.Errorf("unknown application field %q", key)
	}
	m[key] = value

	updated, _ := json.Marshal(m)
	if err := json.Unmarshal(updated, &c.Application); err != nil {
		return fmt.Errorf("failed to update field %s: %w", key, err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}
