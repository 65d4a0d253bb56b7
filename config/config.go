package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvModelPath = "MODEL_PATH"

	DefaultModelPath = "yolo_dataset/train_chassi_detect2/weights/best.onnx"
)

type Config struct {
	// WeightPath selects the ONNX weight file loaded at startup.
	WeightPath string `env:"MODEL_PATH" env-default:"yolo_dataset/train_chassi_detect2/weights/best.onnx" env-description:"path to the exported YOLO weights"`

	Server  ServerConfig
	Runtime RuntimeConfig
}

type ServerConfig struct {
	Port      string `env:"PORT" env-default:"8000" env-description:"local server listen port"`
	Debug     bool   `env:"DEBUG" env-default:"false" env-description:"development logging and per-request timings"`
	StaticDir string `env:"STATIC_DIR" env-description:"serve the frontend from disk instead of the embedded copy"`
}

type RuntimeConfig struct {
	LibraryPath string `env:"ONNXRUNTIME_LIB_PATH" env-description:"onnxruntime shared library"`
	PoolSize    int    `env:"POOL_SIZE" env-default:"4" env-description:"number of pooled inference sessions"`
}

// Load resolves the configuration once from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.WeightPath == "" {
		return fmt.Errorf("%s must not be empty", EnvModelPath)
	}
	if c.Runtime.PoolSize <= 0 {
		return fmt.Errorf("POOL_SIZE must be positive, got %d", c.Runtime.PoolSize)
	}
	return nil
}

// Usage describes every recognized environment variable.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}
