package bench

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"fibbench/internal/fib"
)

const (
	EngineNative = "native"
	EngineWasm   = "wasm"
)

// Prompt 是读取 n 之前输出的提示。
const Prompt = "Enter n: "

// ErrUnknownEngine 表示 FIBBENCH_ENGINE 取值不受支持。
var ErrUnknownEngine = errors.New("unknown engine")

// Config 描述一次基准运行所需的配置。
type Config struct {
	Algorithm  fib.Algorithm
	Engine     string
	WasmPath   string
	MeterCalls bool
	LogLevel   string
	Log        Logger
}

// applyDefaults 为缺失的配置填充默认值。
func (c *Config) applyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = fib.AlgorithmIterative
	}
	if c.Engine == "" {
		c.Engine = EngineNative
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate 检查算法与引擎名称。
func (c Config) Validate() error {
	if _, err := fib.Lookup(c.Algorithm); err != nil {
		return err
	}
	switch c.Engine {
	case EngineNative, EngineWasm:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngine, c.Engine)
	}
}

// LoadConfig 从环境变量读取可选配置，未设置时保持与原始程序一致的行为。
// getenv 为 nil 时使用 os.Getenv。
func LoadConfig(alg fib.Algorithm, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Config{
		Algorithm: alg,
		Engine:    strings.ToLower(envOr(getenv, "FIBBENCH_ENGINE", EngineNative)),
		WasmPath:  envOr(getenv, "FIBBENCH_WASM_PATH", ""),
		LogLevel:  envOr(getenv, "FIBBENCH_LOG_LEVEL", "warn"),
	}
	if v := envOr(getenv, "FIBBENCH_METER_CALLS", ""); v != "" {
		meter, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FIBBENCH_METER_CALLS=%q: %w", v, err)
		}
		cfg.MeterCalls = meter
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// envOr 读取环境变量，当变量不存在或为空白时返回默认值。
func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}
