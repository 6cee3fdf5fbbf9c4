package config_test

import (
	"testing"
	"time"

	"go-leave/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("success with defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DB_PASSWORD", "pw")

		cfg, err := config.Load()

		assert.NoError(t, err)
		assert.Equal(t, 12, cfg.DefaultTotalDays)
		assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
		assert.False(t, cfg.IsProduction())
		assert.False(t, cfg.SMTPEnabled())
	})

	t.Run("negative missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("DB_PASSWORD", "pw")

		_, err := config.Load()

		assert.Error(t, err)
	})

	t.Run("negative missing db password", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DB_PASSWORD", "")

		_, err := config.Load()

		assert.Error(t, err)
	})

	t.Run("negative unknown timezone", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DB_PASSWORD", "pw")
		t.Setenv("TIMEZONE", "Mars/Olympus")

		_, err := config.Load()

		assert.Error(t, err)
	})
}

func TestConfig_Location(t *testing.T) {
	cfg := &config.Config{Timezone: "Asia/Ho_Chi_Minh"}

	loc, err := cfg.Location()

	assert.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}
