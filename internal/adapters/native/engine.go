package native

import (
	"context"

	"fibbench/internal/bench"
	"fibbench/internal/fib"
)

// Engine 直接以编译后的 Go 代码执行算法。
type Engine struct {
	alg fib.Algorithm
	fn  fib.Func
	log bench.Logger
}

// NewEngine 按算法名称构造原生引擎。
func NewEngine(alg fib.Algorithm, log bench.Logger) (*Engine, error) {
	fn, err := fib.Lookup(alg)
	if err != nil {
		return nil, err
	}
	return &Engine{alg: alg, fn: fn, log: bench.DefaultLogger(log)}, nil
}

// Name 返回引擎名称。
func (e *Engine) Name() string { return bench.EngineNative }

// Fib 同步计算，不响应取消。
func (e *Engine) Fib(_ context.Context, n int32) (int32, error) {
	return e.fn(n), nil
}

// Close 无资源需要释放。
func (e *Engine) Close(context.Context) error {
	e.log.Infof("native %s engine closed", e.alg)
	return nil
}
