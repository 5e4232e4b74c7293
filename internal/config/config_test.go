package config

import (
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100.0, cfg.Pipeline.Filter.MaxAccuracyMeters)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.Visit.MinDuration)
	assert.Equal(t, 50.0, cfg.Realtime.MinTripDistanceMeters)
	assert.Empty(t, cfg.MQTT.BrokerURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
	assert.Nil(t, cfg)
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", ":9090")
	t.Setenv("VISIT_RADIUS_M", "150")
	t.Setenv("TRIP_MIN_DURATION", "6h")
	t.Setenv("FILTER_STATIC_WINDOW", "0")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")
	t.Setenv("HOME_TIME_ZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, 150.0, cfg.Pipeline.Visit.SpatialThresholdMeters)
	assert.Equal(t, 6*time.Hour, cfg.Pipeline.Trip.MinTripDuration)
	assert.Zero(t, cfg.Pipeline.Filter.StaticWindow)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.BrokerURL)
	assert.Equal(t, "Europe/Berlin", cfg.Pipeline.Home.Location.String())
}

func TestLoadInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HOME_MIN_NIGHTS", "three")

	_, err := Load()
	assert.ErrorContains(t, err, "HOME_MIN_NIGHTS")
}

// chdir changes the working directory for the duration of the test,
// restoring the previous one on cleanup (equivalent to testing.T.Chdir).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
