package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, DefaultGatewayPort, cfg.Gateway.Port)
	require.Equal(t, DefaultAPIPort, cfg.Gateway.APIPort)

	// The default file must now exist and parse as JSON.
	data, err := os.ReadFile(filepath.Join(dir, DefaultConfigFile))
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "gateway")
	require.Contains(t, raw, "application")
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	body := `{"gateway": {"port": 9001, "world_name": "midgard"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(body), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Overridden fields take the file's value; everything else keeps defaults.
	require.Equal(t, 9001, cfg.Gateway.Port)
	require.Equal(t, "midgard", cfg.Gateway.WorldName)
	require.Equal(t, DefaultAPIPort, cfg.Gateway.APIPort)
	require.Equal(t, 7, cfg.Application.Capture.RetentionDays)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("{nope"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestUpdateGatewayField(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.UpdateGatewayField("port", 8100))
	require.Equal(t, 8100, cfg.Gateway.Port)

	require.NoError(t, cfg.UpdateGatewayField("motd", "welcome"))
	require.Equal(t, "welcome", cfg.Gateway.MOTD)

	err := cfg.UpdateGatewayField("no_such_field", 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no_such_field")
}

func TestValidateDefaultsAreValid(t *testing.T) {
	result := Validate(DefaultConfig())
	require.True(t, result.IsValid(), "default config must validate: %v", result.Errors)
}

func TestValidateCatchesBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Gateway.Port = 70000 },
			field:  "gateway.port",
		},
		{
			name:   "port collision",
			mutate: func(c *Config) { c.Gateway.Port = c.Gateway.APIPort },
			field:  "gateway.port",
		},
		{
			name:   "zero sessions",
			mutate: func(c *Config) { c.Gateway.MaxSessions = 0 },
			field:  "gateway.max_sessions",
		},
		{
			name:   "empty world name",
			mutate: func(c *Config) { c.Gateway.WorldName = "  " },
			field:  "gateway.world_name",
		},
		{
			name:   "bad sweep time",
			mutate: func(c *Config) { c.Application.Timers.RetentionSweepTime = "4am" },
			field:  "application.timers.retention_sweep_time",
		},
		{
			name:   "capture retention zero",
			mutate: func(c *Config) { c.Application.Capture.RetentionDays = 0 },
			field:  "application.capture.retention_days",
		},
		{
			name: "mqtt enabled without broker",
			mutate: func(c *Config) {
				c.Application.MQTT.Enabled = true
				c.Application.MQTT.BrokerURL = ""
			},
			field: "application.mqtt.broker_url",
		},
		{
			name: "tls enabled without cert",
			mutate: func(c *Config) { c.Application.Security.TLSEnabled = true },
			field: "application.security.tls_cert_file",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			result := Validate(cfg)
			require.False(t, result.IsValid())

			found := false
			for _, e := range result.Errors {
				if e.Field == tc.field {
					found = true
				}
			}
			require.True(t, found, "expected an error on %s, got %v", tc.field, result.Errors)
		})
	}
}
