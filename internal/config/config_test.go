package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealfynd/settlement/internal/settlement"
)

func TestParseFeeTable(t *testing.T) {
	table, err := ParseFeeTable(`{"24": 5, "72": 7.5}`)
	require.NoError(t, err)
	assert.Equal(t, settlement.FeeTable{24: 5, 72: 7.5}, table)

	empty, err := ParseFeeTable(`{}`)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseFeeTable(`{"one-day": 5}`)
	assert.Error(t, err, "non-numeric duration keys are rejected")

	_, err = ParseFeeTable(`{"24": -1}`)
	assert.Error(t, err, "negative percentages are rejected")

	_, err = ParseFeeTable(`not json`)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "sk_test_123")
	t.Setenv("WEBHOOK_SIGNING_SECRET", "whsec_test")
	t.Setenv("PLATFORM_FEE_TABLE", `{"24": 5}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sek", cfg.Currency)
	assert.Equal(t, settlement.FeeTable{24: 5}, cfg.FeeTable)
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "")
	t.Setenv("WEBHOOK_SIGNING_SECRET", "whsec_test")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PROVIDER_API_KEY", "sk_test_123")
	t.Setenv("WEBHOOK_SIGNING_SECRET", "")
	_, err = Load()
	assert.Error(t, err)
}
