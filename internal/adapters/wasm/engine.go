package wasm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"fibbench/internal/bench"
	"fibbench/internal/fib"
)

const maxModuleBytes = 64 << 20

// Options 配置 NewEngine。
type Options struct {
	// Module 为 Wasm 二进制；nil 时使用内置模块。
	Module []byte
	// MeterCalls 为每次 Fib 统计导出函数的 guest 调用次数。
	MeterCalls bool
	Log        bench.Logger
}

// Engine 在 wazero 运行时中执行一个 fib 导出函数，非并发安全。
type Engine struct {
	export string
	rt     wazero.Runtime
	fn     api.Function
	meter  *callMeter
}

// LoadModule 读取模块文件；path 为空时返回内置模块。
func LoadModule(path string) ([]byte, error) {
	if path == "" {
		return BuiltinModule(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat wasm %s: %w", path, err)
	}
	if info.Size() > maxModuleBytes {
		return nil, fmt.Errorf("module %s larger than %d bytes", path, maxModuleBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wasm from %s: %w", path, err)
	}
	return data, nil
}

// NewEngine 编译并实例化模块，按 fib_<alg>、fib 的顺序解析导出函数。
// 实例化开销发生在这里，Fib 的计时只覆盖 guest 调用本身。
func NewEngine(ctx context.Context, alg fib.Algorithm, opts Options) (*Engine, error) {
	if _, err := fib.Lookup(alg); err != nil {
		return nil, err
	}
	log := bench.DefaultLogger(opts.Log)
	bin := opts.Module
	if bin == nil {
		bin = BuiltinModule()
	}

	rtCfg := wazero.NewRuntimeConfig()
	if opts.MeterCalls {
		// 监听器在编译期绑定；解释器在所有平台上都支持监听器。
		rtCfg = wazero.NewRuntimeConfigInterpreter()
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg.WithCloseOnContextDone(true))

	// 启用 WASI，使 TinyGo 构建的模块可以实例化。
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("init wasi: %w", err)
	}

	compileCtx := ctx
	var meter *callMeter
	if opts.MeterCalls {
		meter = &callMeter{}
		compileCtx = experimental.WithFunctionListenerFactory(ctx, meter)
	}
	compiled, err := rt.CompileModule(compileCtx, bin)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compile wasm: %w", err)
	}
	export, err := resolveExport(compiled, alg)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	if meter != nil {
		meter.export = export
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithStartFunctions("_initialize"))
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasm: %w", err)
	}
	fn := mod.ExportedFunction(export)
	if fn == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("exported function %q not found", export)
	}
	log.Infof("wasm engine ready: export=%s module=%d bytes metered=%t", export, len(bin), opts.MeterCalls)
	return &Engine{export: export, rt: rt, fn: fn, meter: meter}, nil
}

// resolveExport 选出 alg 对应的导出函数，并校验签名为 (i32) -> i32。
func resolveExport(compiled wazero.CompiledModule, alg fib.Algorithm) (string, error) {
	exports := compiled.ExportedFunctions()
	for _, name := range []string{"fib_" + string(alg), ExportFallback} {
		def, ok := exports[name]
		if !ok {
			continue
		}
		if !slices.Equal(def.ParamTypes(), []api.ValueType{api.ValueTypeI32}) ||
			!slices.Equal(def.ResultTypes(), []api.ValueType{api.ValueTypeI32}) {
			return "", fmt.Errorf("export %q: want (i32) -> i32, got %v -> %v", name, def.ParamTypes(), def.ResultTypes())
		}
		return name, nil
	}
	return "", fmt.Errorf("module exports neither fib_%s nor %s", alg, ExportFallback)
}

// Name 返回引擎名称。
func (e *Engine) Name() string { return bench.EngineWasm }

// Export 返回解析出的导出函数名。
func (e *Engine) Export() string { return e.export }

// Fib 调用 guest 函数；i32 运算与 Go 的 int32 一样按补码回绕。
// 这里不做任何 I/O，调用次数由调用方在计时结束后通过 Calls 读取。
func (e *Engine) Fib(ctx context.Context, n int32) (int32, error) {
	if e.meter != nil {
		e.meter.count = 0
	}
	results, err := e.fn.Call(ctx, api.EncodeI32(n))
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", e.export, err)
	}
	if len(results) != 1 {
		return 0, errors.New("fib returned no result")
	}
	return api.DecodeI32(results[0]), nil
}

// Calls 返回上一次 Fib 的 guest 调用次数；未开启计数时为 0。
func (e *Engine) Calls() uint64 {
	if e.meter == nil {
		return 0
	}
	return e.meter.count
}

// Close 释放运行时及其中的全部模块。
func (e *Engine) Close(ctx context.Context) error {
	return e.rt.Close(ctx)
}
