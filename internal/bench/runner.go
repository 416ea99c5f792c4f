package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Runner 串联提示、读取、计时计算与结果输出。
type Runner struct {
	cfg    Config
	engine Engine
	log    Logger
}

// NewRunner 使用给定引擎构建 Runner。
func NewRunner(cfg Config, engine Engine) (*Runner, error) {
	if engine == nil {
		return nil, errors.New("engine required")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		cfg:    cfg,
		engine: engine,
		log:    DefaultLogger(cfg.Log),
	}, nil
}

// Run 输出提示、阻塞读取 n，然后计时计算并把结果写入 out。
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Result, error) {
	if _, err := io.WriteString(out, Prompt); err != nil {
		return Result{}, fmt.Errorf("write prompt: %w", err)
	}
	n, err := readN(ctx, in)
	if err != nil {
		return Result{}, err
	}
	r.log.Infof("computing fib(%d) with %s/%s", n, r.cfg.Algorithm, r.engine.Name())

	res, err := Measure(ctx, r.engine, n)
	if err != nil {
		return Result{}, fmt.Errorf("compute fib(%d): %w", n, err)
	}
	res.Algorithm = r.cfg.Algorithm
	r.log.Infof("fib(%d) finished in %s", n, res.Elapsed)
	if cc, ok := r.engine.(CallCounter); ok && cc.Calls() > 0 {
		r.log.Infof("fib(%d): %d guest calls", n, cc.Calls())
	}

	if err := WriteResult(out, res); err != nil {
		return res, fmt.Errorf("write result: %w", err)
	}
	return res, nil
}

// readN 在后台读取 n，使阻塞的标准输入可以被 ctx 取消打断。
func readN(ctx context.Context, in io.Reader) (int32, error) {
	type read struct {
		n   int32
		err error
	}
	ch := make(chan read, 1)
	go func() {
		n, err := ReadN(in)
		ch <- read{n: n, err: err}
	}()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-ch:
		return r.n, r.err
	}
}

// Measure 只对引擎调用本身计时，不包含任何 I/O。
func Measure(ctx context.Context, engine Engine, n int32) (Result, error) {
	start := time.Now()
	v, err := engine.Fib(ctx, n)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return Result{N: n, Value: v, Elapsed: elapsed, Engine: engine.Name()}, nil
}

// WriteResult 按固定格式输出结果与耗时（秒）。
func WriteResult(out io.Writer, res Result) error {
	_, err := fmt.Fprintf(out, "fib(%d) is %d\nTime taken: %g seconds\n", res.N, res.Value, res.Elapsed.Seconds())
	return err
}
