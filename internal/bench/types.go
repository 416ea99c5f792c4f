package bench

import (
	"context"
	"time"

	"fibbench/internal/fib"
)

// Result 描述一次计时测量。
type Result struct {
	N         int32
	Value     int32
	Elapsed   time.Duration
	Algorithm fib.Algorithm
	Engine    string
}

// Engine 抽象斐波那契计算的执行环境（原生 Go 或 Wasm）。
type Engine interface {
	Name() string
	Fib(ctx context.Context, n int32) (int32, error)
	Close(ctx context.Context) error
}

// CallCounter 由能统计调用次数的引擎实现，返回上一次 Fib 的调用数。
type CallCounter interface {
	Calls() uint64
}

// Logger 提供基础日志输出。
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
