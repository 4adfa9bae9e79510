package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.CallRequestCooldown)
	assert.Equal(t, 30*time.Second, cfg.SlotCacheTTL)
	assert.Equal(t, "https://api.videosdk.live", cfg.VideoSDKBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.ReminderLeadTime)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("CALL_REQUEST_COOLDOWN", "90s")
	v.Set("STORE_DRIVER", "memory")
	v.Set("MAX_REQUESTS_PER_MIN", 10)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.CallRequestCooldown)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 10, cfg.MaxRequestsPerMin)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Config{}.Location())
	assert.Equal(t, time.UTC, Config{Timezone: "Not/AZone"}.Location())
}
