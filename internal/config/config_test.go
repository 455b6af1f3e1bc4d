package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "carrent", cfg.Database.DBName)
	assert.Equal(t, "Modern Drive Pickup Center", cfg.Shop.Name)
	assert.InDelta(t, 13.7466, cfg.Shop.Lat, 1e-9)
	assert.InDelta(t, 100.5393, cfg.Shop.Lng, 1e-9)
	assert.Equal(t, "leaflet", cfg.Maps.Provider)
	assert.Equal(t, 3, cfg.Maps.TileFailureThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Wizard.SessionTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAP_PROVIDER", "Google")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WIZARD_SESSION_TTL", "5m")
	t.Setenv("NEW_RELIC_ENABLED", "true")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "google", cfg.Maps.Provider)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Wizard.SessionTTL)
	assert.True(t, cfg.NewRelic.Enabled)
	assert.True(t, cfg.IsProduction())
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{Wizard: WizardConfig{Timezone: "Asia/Bangkok"}}
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 7*60*60, offset)

	cfg.Wizard.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
