package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryAtDurations(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		token string
		want  time.Duration
	}{
		{"1m", time.Minute},
		{"1h", time.Hour},
		{"12h", 12 * time.Hour},
		{"1d", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"6mo", 180 * 24 * time.Hour},
		{"1y", 365 * 24 * time.Hour},
	}
	for _, tc := range cases {
		at := ExpiryAt(tc.token, now)
		require.NotNil(t, at, "token %s", tc.token)
		assert.Equal(t, now.Add(tc.want), *at, "token %s", tc.token)
	}
}

func TestExpiryAtNeverAndUnknown(t *testing.T) {
	now := time.Now()
	assert.Nil(t, ExpiryAt("never", now))
	assert.Nil(t, ExpiryAt("eventually", now))
}

func TestValidExpiry(t *testing.T) {
	assert.True(t, ValidExpiry("never"))
	assert.True(t, ValidExpiry("1w"))
	assert.True(t, ValidExpiry("6mo"))
	assert.False(t, ValidExpiry("eventually"))
}

func TestChoiceValidation(t *testing.T) {
	assert.True(t, ValidCategory("NONE"))
	assert.True(t, ValidCategory("Source Code"))
	assert.False(t, ValidCategory("Unknown"))

	assert.True(t, ValidLanguage("python"))
	assert.False(t, ValidLanguage("klingon"))

	assert.True(t, ValidAccess(AccessPublic))
	assert.True(t, ValidAccess(AccessPrivate))
	assert.False(t, ValidAccess("secret"))
}

func TestChoiceLabels(t *testing.T) {
	assert.Equal(t, "Plain text", LanguageLabel("none"))
	assert.Equal(t, "C++", LanguageLabel("cpp"))
	assert.Equal(t, "No category", CategoryLabel("NONE"))
	// Unknown values fall through unchanged.
	assert.Equal(t, "mystery", CategoryLabel("mystery"))
}

func TestBinIsActive(t *testing.T) {
	bin := Bin{}
	assert.True(t, bin.IsActive(), "nil expiry means never expires")

	future := time.Now().Add(time.Hour)
	bin.ExpiryAt = &future
	assert.True(t, bin.IsActive())

	past := time.Now().Add(-time.Second)
	bin.ExpiryAt = &past
	assert.False(t, bin.IsActive())
}
