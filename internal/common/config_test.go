package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEYS", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg := LoadConfig()

	assert.Empty(t, cfg.LLM.APIKeys)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	assert.Equal(t, DefaultVisionModels, cfg.LLM.VisionModels)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.RateLimitBackoff)
	assert.Equal(t, 5*time.Second, cfg.Delivery.Timeout)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.ItemDelay)
	assert.Equal(t, 5*time.Minute, cfg.Approval.TTL)

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEYS", " k1, ,k2 ")
	t.Setenv("VISION_MODELS", "m1,m2")
	t.Setenv("PIPELINE_DISCARD_SATURATED", "true")
	t.Setenv("PIPELINE_ITEM_DELAY", "10ms")
	t.Setenv("PIPELINE_MAX_RETRIES", "nope")

	cfg := LoadConfig()

	assert.Equal(t, []string{"k1", "k2"}, cfg.LLM.APIKeys)
	assert.Equal(t, []string{"m1", "m2"}, cfg.LLM.VisionModels)
	assert.True(t, cfg.Pipeline.DiscardSaturated)
	assert.Equal(t, 10*time.Millisecond, cfg.Pipeline.ItemDelay)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.NoError(t, cfg.Validate())
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("registration_number", "123-45-6789", Required, RegistrationNumber).
		Field("requester_id", "", Required)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.True(t, IsValidationError(v.Error()))

	ok := NewValidator().Field("registration_number", "123-45-67890", Required, RegistrationNumber)
	assert.NoError(t, ok.Error())
}

func TestToStatus(t *testing.T) {
	assert.Nil(t, ToStatus(nil))
	assert.Contains(t, ToStatus(WrapError(ErrNotFound, "batch")).Error(), "NotFound")
	assert.Contains(t, ToStatus(ErrApprovalRequired).Error(), "PermissionDenied")
	assert.True(t, IsFatal(WrapError(ErrNoCredentials, "extract")))
}
