// Package config loads the witnesscalc CLI configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc"
)

// EnvPrefix prefixes every environment override, e.g.
// WITNESSCALC_WASM_MODULE_PATH.
const EnvPrefix = "WITNESSCALC"

type Config struct {
	Backend         string        `mapstructure:"backend"`
	LogLevel        string        `mapstructure:"log_level"`
	ErrorBufferSize int           `mapstructure:"error_buffer_size"`
	Wasm            WasmConfig    `mapstructure:"wasm"`
	Metrics         MetricsConfig `mapstructure:"metrics"`
}

// WasmConfig configures the WebAssembly backend.
type WasmConfig struct {
	// Path to the calculator compiled to wasm32-wasip1.
	ModulePath string `mapstructure:"module_path"`
	// Memory limit in pages, 64KiB each.
	MemoryPages uint32 `mapstructure:"memory_pages"`
}

type MetricsConfig struct {
	// Textfile receives the metrics in Prometheus text format after each
	// run. Empty disables it.
	Textfile string `mapstructure:"textfile"`
}

// Load reads defaults, then the YAML file at path when set, then
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("backend", string(witnesscalc.BackendNative))
	v.SetDefault("log_level", "info")
	v.SetDefault("error_buffer_size", witnesscalc.DefaultErrorBufferSize)
	v.SetDefault("wasm.module_path", "")
	v.SetDefault("wasm.memory_pages", 16384) // 1GiB
	v.SetDefault("metrics.textfile", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the calculator cannot use.
func (c *Config) Validate() error {
	switch witnesscalc.Backend(c.Backend) {
	case witnesscalc.BackendNative:
	case witnesscalc.BackendWasm:
		if c.Wasm.ModulePath == "" {
			return fmt.Errorf("config: wasm backend requires wasm.module_path")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.ErrorBufferSize < 1 {
		return fmt.Errorf("config: error_buffer_size must be positive, got %d", c.ErrorBufferSize)
	}
	return nil
}

// Calculator converts the file settings to library settings.
func (c *Config) Calculator() witnesscalc.Config {
	return witnesscalc.Config{
		Backend:         witnesscalc.Backend(c.Backend),
		WasmModulePath:  c.Wasm.ModulePath,
		WasmMemoryPages: c.Wasm.MemoryPages,
		ErrorBufferSize: c.ErrorBufferSize,
	}
}
