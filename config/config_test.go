package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recognizedEnv = []string{"MODEL_PATH", "PORT", "DEBUG", "STATIC_DIR", "ONNXRUNTIME_LIB_PATH", "POOL_SIZE"}

// clearEnv unsets every recognized variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range recognizedEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultModelPath, cfg.WeightPath)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, 4, cfg.Runtime.PoolSize)
	assert.Empty(t, cfg.Runtime.LibraryPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_PATH", "/models/chassi.onnx")
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("POOL_SIZE", "2")
	t.Setenv("ONNXRUNTIME_LIB_PATH", "/usr/lib/libonnxruntime.so")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/models/chassi.onnx", cfg.WeightPath)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, 2, cfg.Runtime.PoolSize)
	assert.Equal(t, "/usr/lib/libonnxruntime.so", cfg.Runtime.LibraryPath)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non numeric pool size", key: "POOL_SIZE", value: "many"},
		{name: "zero pool size", key: "POOL_SIZE", value: "0"},
		{name: "bad debug flag", key: "DEBUG", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestUsageListsModelPath(t *testing.T) {
	assert.Contains(t, Usage(), EnvModelPath)
}
