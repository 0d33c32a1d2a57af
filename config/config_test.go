package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.LLM.MinRequestGap)
	assert.Equal(t, 20, cfg.LLM.MaxPerMinute)
	assert.Equal(t, time.Minute, cfg.LLM.QuotaWindow)
	assert.Equal(t, 5*time.Second, cfg.LLM.QuotaRetryDelay)
	assert.Equal(t, 3*time.Minute, cfg.Automation.EligibilityFloor)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AICOMMUNITY_SERVER_PORT", "8080")
	t.Setenv("AICOMMUNITY_LLM_MAX_PER_MINUTE", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.LLM.MaxPerMinute)
}
