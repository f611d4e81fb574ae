package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Run("should read set values", func(t *testing.T) {
		t.Setenv("CLONESCOPE_TEST_STR", "value")
		t.Setenv("CLONESCOPE_TEST_INT", "42")
		t.Setenv("CLONESCOPE_TEST_FLOAT", "2.5")
		t.Setenv("CLONESCOPE_TEST_BOOL", "true")

		assert.Equal(t, "value", GetEnv("CLONESCOPE_TEST_STR", "default"))
		assert.Equal(t, 42, GetEnvInt("CLONESCOPE_TEST_INT", 1))
		assert.Equal(t, 2.5, GetEnvFloat("CLONESCOPE_TEST_FLOAT", 1))
		assert.True(t, GetEnvBool("CLONESCOPE_TEST_BOOL", false))
		assert.Equal(t, 42*time.Minute, GetEnvDuration("CLONESCOPE_TEST_INT", 1, time.Minute))
	})

	t.Run("should fall back on missing or malformed values", func(t *testing.T) {
		t.Setenv("CLONESCOPE_TEST_INT", "forty")
		t.Setenv("CLONESCOPE_TEST_BOOL", "maybe")

		assert.Equal(t, "default", GetEnv("CLONESCOPE_TEST_UNSET", "default"))
		assert.Equal(t, 7, GetEnvInt("CLONESCOPE_TEST_INT", 7))
		assert.Equal(t, 1.5, GetEnvFloat("CLONESCOPE_TEST_UNSET", 1.5))
		assert.True(t, GetEnvBool("CLONESCOPE_TEST_BOOL", true))
	})
}
