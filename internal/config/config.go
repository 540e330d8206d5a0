package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            int    `yaml:"port"`
	StaticDirectory string `yaml:"static_dir"`
	DatabasePath    string `yaml:"database_path"`
	LogDirectory    string `yaml:"log_dir"`
	MaxUploadMB     int    `yaml:"max_upload_mb"`

	FaceCascadePath string `yaml:"face_cascade_path"`
	HandMinArea     int    `yaml:"hand_min_area"` // minimalna powierzchnia konturu dłoni w pikselach

	CodeInterpreter string   `yaml:"code_interpreter"`
	CodeArgs        []string `yaml:"code_args"`
	CodeTimeoutMs   int      `yaml:"code_timeout_ms"`
	CodeCPUSeconds  int      `yaml:"code_cpu_seconds"` // 0 = bez limitu
	CodeMemoryMB    int      `yaml:"code_memory_mb"`   // 0 = bez limitu

	Relay RelayConfig `yaml:"relay"`
}

// RelayConfig configures the live frame relay client.
type RelayConfig struct {
	Endpoint         string `yaml:"endpoint"`
	Method           string `yaml:"method"`
	Low              int    `yaml:"low"`
	High             int    `yaml:"high"`
	Device           string `yaml:"device"`
	Still            string `yaml:"still"`
	IntervalMs       int    `yaml:"interval_ms"` // ~one display refresh
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
	JPEGQuality      int    `yaml:"jpeg_quality"`
	ViewPort         int    `yaml:"view_port"` // 0 disables the viewer server
	SnapshotPath     string `yaml:"snapshot_path"`
	SnapshotEveryMs  int    `yaml:"snapshot_every_ms"`
	Window           bool   `yaml:"window"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:            8000,
		StaticDirectory: filepath.Join(".", "static"),
		DatabasePath:    filepath.Join(".", "data", "devcollab.db"),
		LogDirectory:    filepath.Join(".", "logs"),
		MaxUploadMB:     10,
		FaceCascadePath: filepath.Join(".", "models", "haarcascade_frontalface_default.xml"),
		HandMinArea:     3000,
		CodeInterpreter: "python3",
		CodeArgs:        []string{"-I"},
		CodeTimeoutMs:   3000,
		CodeCPUSeconds:  2,
		CodeMemoryMB:    256,
		Relay: RelayConfig{
			Endpoint:         "http://localhost:8000",
			Method:           "canny",
			Low:              100,
			High:             200,
			Device:           "0",
			IntervalMs:       16,
			RequestTimeoutMs: 5000,
			JPEGQuality:      80,
			SnapshotEveryMs:  1000,
		},
	}
}

// Load builds the configuration: defaults, then CONFIG_FILE (YAML), then
// environment variables. A .env file in the working directory is loaded
// into the environment first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.StaticDirectory = getEnv("STATIC_DIR", c.StaticDirectory)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", c.MaxUploadMB)
	c.FaceCascadePath = getEnv("FACE_CASCADE_PATH", c.FaceCascadePath)
	c.HandMinArea = getEnvAsInt("HAND_MIN_AREA", c.HandMinArea)
	c.CodeInterpreter = getEnv("CODE_INTERPRETER", c.CodeInterpreter)
	c.CodeTimeoutMs = getEnvAsInt("CODE_TIMEOUT_MS", c.CodeTimeoutMs)
	c.CodeCPUSeconds = getEnvAsInt("CODE_CPU_SECONDS", c.CodeCPUSeconds)
	c.CodeMemoryMB = getEnvAsInt("CODE_MEMORY_MB", c.CodeMemoryMB)

	c.Relay.Endpoint = getEnv("RELAY_ENDPOINT", c.Relay.Endpoint)
	c.Relay.Method = getEnv("RELAY_METHOD", c.Relay.Method)
	c.Relay.Low = getEnvAsInt("RELAY_LOW", c.Relay.Low)
	c.Relay.High = getEnvAsInt("RELAY_HIGH", c.Relay.High)
	c.Relay.Device = getEnv("RELAY_DEVICE", c.Relay.Device)
	c.Relay.Still = getEnv("RELAY_STILL", c.Relay.Still)
	c.Relay.IntervalMs = getEnvAsInt("RELAY_INTERVAL_MS", c.Relay.IntervalMs)
	c.Relay.RequestTimeoutMs = getEnvAsInt("RELAY_REQUEST_TIMEOUT_MS", c.Relay.RequestTimeoutMs)
	c.Relay.JPEGQuality = getEnvAsInt("RELAY_JPEG_QUALITY", c.Relay.JPEGQuality)
	c.Relay.ViewPort = getEnvAsInt("RELAY_VIEW_PORT", c.Relay.ViewPort)
	c.Relay.SnapshotPath = getEnv("RELAY_SNAPSHOT_PATH", c.Relay.SnapshotPath)
	c.Relay.SnapshotEveryMs = getEnvAsInt("RELAY_SNAPSHOT_EVERY_MS", c.Relay.SnapshotEveryMs)
	c.Relay.Window = getEnvAsBool("RELAY_WINDOW", c.Relay.Window)
}

// Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0, got %d", c.MaxUploadMB)
	}
	if c.CodeTimeoutMs <= 0 {
		return fmt.Errorf("code_timeout_ms must be > 0, got %d", c.CodeTimeoutMs)
	}
	if c.CodeCPUSeconds < 0 {
		return fmt.Errorf("code_cpu_seconds must be >= 0, got %d", c.CodeCPUSeconds)
	}
	if c.CodeMemoryMB < 0 {
		return fmt.Errorf("code_memory_mb must be >= 0, got %d", c.CodeMemoryMB)
	}
	if c.Relay.IntervalMs <= 0 {
		return fmt.Errorf("relay.interval_ms must be > 0, got %d", c.Relay.IntervalMs)
	}
	if c.Relay.RequestTimeoutMs <= 0 {
		return fmt.Errorf("relay.request_timeout_ms must be > 0, got %d", c.Relay.RequestTimeoutMs)
	}
	if c.Relay.JPEGQuality < 1 || c.Relay.JPEGQuality > 100 {
		return fmt.Errorf("relay.jpeg_quality must be in 1..100, got %d", c.Relay.JPEGQuality)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// CodeTimeout returns the code execution timeout.
func (c *Config) CodeTimeout() time.Duration {
	return time.Duration(c.CodeTimeoutMs) * time.Millisecond
}

// Interval returns the time between capture ticks.
func (r RelayConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMs) * time.Millisecond
}

// RequestTimeout returns the per-request deadline.
func (r RelayConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutMs) * time.Millisecond
}

// SnapshotEvery returns the snapshot flush interval.
func (r RelayConfig) SnapshotEvery() time.Duration {
	return time.Duration(r.SnapshotEveryMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
