package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: message})
}

// Validate performs comprehensive validation of the configuration.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	validateGateway(&cfg.Gateway, result)
	validateApplication(&cfg.Application, result)

	return result
}

func validateGateway(data *GatewayData, result *ValidationResult) {
	validatePort(data.Port, "gateway.port", result)
	validatePort(data.APIPort, "gateway.api_port", result)

	if data.Port == data.APIPort {
		result.AddError("gateway.port", "gateway and API ports must differ")
	}

	if data.MaxSessions < 1 {
		result.AddError("gateway.max_sessions", "must allow at least 1 session")
	}
	if data.MaxSessions > 10000 {
		result.AddWarning("gateway.max_sessions",
			fmt.Sprintf("high session count (%d) may exhaust file descriptors", data.MaxSessions))
	}

	if data.HandshakeTimeoutSec < 1 {
		result.AddError("gateway.handshake_timeout_sec", "handshake timeout must be at least 1 second")
	}
	if data.ReadTimeoutSec < 5 {
		result.AddWarning("gateway.read_timeout_sec",
			"read timeout under 5 seconds will drop sessions between heartbeats")
	}

	if data.HeartbeatMS < 100 {
		result.AddError("gateway.heartbeat_ms", "heartbeat interval must be at least 100ms")
	}

	if strings.TrimSpace(data.WorldName) == "" {
		result.AddError("gateway.world_name", "world name is required (sent in every hello ack)")
	}
}

func validateApplication(data *ApplicationData, result *ValidationResult) {
	validateTimers(&data.Timers, result)

	if data.Capture.Enabled {
		if data.Capture.RetentionDays < 1 {
			result.AddError("application.capture.retention_days",
				"retention days must be at least 1")
		}
		if strings.TrimSpace(data.Capture.Directory) == "" {
			result.AddError("application.capture.directory",
				"capture directory is required when capture is enabled")
		}
		if data.Capture.MaxPayloadBytes < 0 {
			result.AddError("application.capture.max_payload_bytes",
				"max payload bytes cannot be negative")
		}
	}

	if data.MQTT.Enabled {
		if strings.TrimSpace(data.MQTT.BrokerURL) == "" {
			result.AddError("application.mqtt.broker_url", "MQTT broker URL is required when enabled")
		}
		if data.MQTT.Port < 1 || data.MQTT.Port > 65535 {
			result.AddError("application.mqtt.port", "invalid MQTT port")
		}
	}

	if data.Security.TLSEnabled {
		if strings.TrimSpace(data.Security.TLSCertFile) == "" {
			result.AddError("application.security.tls_cert_file",
				"TLS certificate file is required when TLS is enabled")
		}
		if strings.TrimSpace(data.Security.TLSKeyFile) == "" {
			result.AddError("application.security.tls_key_file",
				"TLS key file is required when TLS is enabled")
		}
	}

	if data.Security.RateLimitRPS < 1 {
		result.AddWarning("application.security.rate_limit_rps",
			"rate limit is disabled (0 RPS), this may expose the API to abuse")
	}
}

func validateTimers(timers *TimerData, result *ValidationResult) {
	if timers.StatsSnapshotInterval < 5 {
		result.AddWarning("application.timers.stats_snapshot_interval",
			"snapshot interval under 5s may flood the telemetry broker")
	}
	if timers.StaleSessionInterval < 10 {
		result.AddWarning("application.timers.stale_session_interval",
			"stale session sweep under 10s races the gateway read timeout")
	}
	if _, err := time.Parse("15:04", timers.RetentionSweepTime); err != nil {
		result.AddError("application.timers.retention_sweep_time",
			fmt.Sprintf("invalid sweep time %q (expected HH:MM)", timers.RetentionSweepTime))
	}
}

func validatePort(port int, field string, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("invalid port number: %d (must be 1-65535)", port))
		return
	}
	if port < 1024 {
		result.AddWarning(field,
			fmt.Sprintf("port %d is a privileged port, may require elevated permissions", port))
	}
}
