package models

import (
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
}

func TestSettingsValidate_Rules(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(s *Settings)
		field string
	}{
		{"short name", func(s *Settings) { s.General.PlatformName = "A" }, "general.platform_name"},
		{"bad color", func(s *Settings) { s.General.PrimaryColor = "green" }, "general.primary_color"},
		{"bad language", func(s *Settings) { s.General.Language = "de" }, "general.language"},
		{"jwt too short", func(s *Settings) { s.Security.JWTExpirationMinutes = 1 }, "security.jwt_expiration"},
		{"no rate limit", func(s *Settings) { s.Security.RateLimitRequests = 0 }, "security.rate_limit"},
		{"bad origin", func(s *Settings) { s.Security.AllowedCORSOrigins = []string{"ftp://x"} }, "security.cors"},
		{"bad email", func(s *Settings) { s.Notifications.SenderEmail = "nobody" }, "notifications.sender_email"},
		{"bad provider", func(s *Settings) { s.Notifications.SMSProvider = "pigeon" }, "notifications.sms_provider"},
		{"commission", func(s *Settings) { s.Monetization.PlatformCommission = 120 }, "monetization.commission"},
		{"escrow", func(s *Settings) { s.Monetization.EscrowDays = -1 }, "monetization.escrow_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.edit(&s)
			err := s.Validate()
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, []string{tt.field}, fieldNames(err))
		})
	}
}

func TestSetSettingsField(t *testing.T) {
	s := DefaultSettings()

	require.NoError(t, SetSettingsField(&s, "general.maintenance", "on"))
	require.NoError(t, SetSettingsField(&s, "security.require_2fa", "false"))
	require.NoError(t, SetSettingsField(&s, "security.cors", "https://a.example, ,https://b.example"))
	require.NoError(t, SetSettingsField(&s, "monetization.commission", "7.5"))
	require.NoError(t, SetSettingsField(&s, "features.ai_insights", "yes"))
	require.NoError(t, SetSettingsField(&s, "channels.webhook", "1"))

	assert.True(t, s.General.MaintenanceMode)
	assert.False(t, s.Security.Require2FA)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.Security.AllowedCORSOrigins)
	assert.Equal(t, 7.5, s.Monetization.PlatformCommission)
	assert.True(t, s.Features["ai_insights"])
	assert.True(t, s.Notifications.Channels["webhook"])
}

func TestSetSettingsField_Errors(t *testing.T) {
	s := DefaultSettings()

	require.ErrorIs(t, SetSettingsField(&s, "security.rate_limit", "many"), ErrIncorrectFieldValue)
	assert.Equal(t, 100, s.Security.RateLimitRequests)

	require.ErrorIs(t, SetSettingsField(&s, "features.strict_kyc", "maybe"), ErrIncorrectFieldValue)
	require.ErrorIs(t, SetSettingsField(&s, "features.", "on"), ErrUnknownField)
	require.ErrorIs(t, SetSettingsField(&s, "general.logo", "x"), ErrUnknownField)
}

func TestSetSettingsField_NilMaps(t *testing.T) {
	var s Settings
	require.NoError(t, SetSettingsField(&s, "features.marketplace", "true"))
	require.NoError(t, SetSettingsField(&s, "channels.email", "false"))
	assert.Equal(t, map[string]bool{"marketplace": true}, s.Features)
	assert.Equal(t, map[string]bool{"email": false}, s.Notifications.Channels)
}

func TestSettingsFieldNamesSorted(t *testing.T) {
	names := SettingsFields.Names()
	require.NotEmpty(t, names)
	assert.IsNonDecreasing(t, names)
}
