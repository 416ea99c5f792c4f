package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tetratelabs/wazero/sys"

	"fibbench/internal/adapters/native"
	"fibbench/internal/adapters/wasm"
	"fibbench/internal/bench"
	"fibbench/internal/fib"
)

// Env 汇集进程级输入输出，便于测试替换。
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

// exitInterrupted 是被 SIGINT/SIGTERM 打断时的退出码（128+SIGINT）。
const exitInterrupted = 130

// interruptGrace 是收到信号后等待 Run 自行返回的时间；原生引擎的计算无法被取消。
const interruptGrace = 500 * time.Millisecond

// Main 是两个 cmd 共用的入口，返回进程退出码。
func Main(alg fib.Algorithm) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return supervise(ctx, stop, interruptGrace, os.Stderr, func() int {
		return Run(ctx, alg, Env{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
			Getenv: os.Getenv,
		})
	})
}

// supervise 在后台执行 run；ctx 被取消后恢复默认信号处理，
// 若 run 在 grace 内仍未返回则直接返回 exitInterrupted，由调用方退出进程。
func supervise(ctx context.Context, stop context.CancelFunc, grace time.Duration, stderr io.Writer, run func() int) int {
	done := make(chan int, 1)
	go func() { done <- run() }()
	select {
	case code := <-done:
		return code
	case <-ctx.Done():
		stop()
	}
	select {
	case code := <-done:
		return code
	case <-time.After(grace):
		fmt.Fprintln(stderr, "interrupted")
		return exitInterrupted
	}
}

// Run 将配置 Config、日志 Logger、引擎 Engine 与 Runner 串联起来执行一次基准。
func Run(ctx context.Context, alg fib.Algorithm, env Env) int {
	cfg, err := bench.LoadConfig(alg, env.Getenv)
	if err != nil {
		fmt.Fprintf(env.Stderr, "config: %v\n", err)
		return 1
	}
	logger, err := bench.NewLogger(env.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(env.Stderr, "logger: %v\n", err)
		return 1
	}
	logger = bench.WithField(logger, "algorithm", string(cfg.Algorithm))
	cfg.Log = logger

	engine, err := openEngine(ctx, cfg)
	if err != nil {
		logger.Errorf("engine: %v", err)
		return 1
	}
	defer func() {
		if err := engine.Close(context.Background()); err != nil {
			logger.Warnf("close engine: %v", err)
		}
	}()

	runner, err := bench.NewRunner(cfg, engine)
	if err != nil {
		logger.Errorf("runner: %v", err)
		return 1
	}
	if _, err := runner.Run(ctx, env.Stdin, env.Stdout); err != nil {
		if interrupted(err) {
			logger.Warnf("interrupted: %v", err)
			return exitInterrupted
		}
		logger.Errorf("run: %v", err)
		return 1
	}
	return 0
}

// interrupted 判断错误是否来自取消；wazero 以 sys.ExitError 报告上下文结束。
func interrupted(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
			return true
		}
	}
	return false
}

// openEngine 根据配置选择原生或 Wasm 引擎。
func openEngine(ctx context.Context, cfg bench.Config) (bench.Engine, error) {
	switch cfg.Engine {
	case bench.EngineWasm:
		module, err := wasm.LoadModule(cfg.WasmPath)
		if err != nil {
			return nil, err
		}
		if cfg.WasmPath != "" {
			cfg.Log.Infof("using wasm module %s", cfg.WasmPath)
		} else {
			cfg.Log.Infof("using built-in wasm module")
		}
		return wasm.NewEngine(ctx, cfg.Algorithm, wasm.Options{
			Module:     module,
			MeterCalls: cfg.MeterCalls,
			Log:        cfg.Log,
		})
	default:
		return native.NewEngine(cfg.Algorithm, cfg.Log)
	}
}
