package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/sys"

	"fibbench/internal/adapters/wasm"
	"fibbench/internal/fib"
)

var outputPattern = regexp.MustCompile(`^Enter n: fib\((-?\d+)\) is (-?\d+)\nTime taken: [0-9.e+-]+ seconds\n$`)

func run(t *testing.T, alg fib.Algorithm, input string, env map[string]string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), alg, Env{
		Stdin:  strings.NewReader(input),
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return env[k] },
	})
	return code, stdout.String(), stderr.String()
}

func TestEndToEnd(t *testing.T) {
	cases := []struct {
		input string
		line  string
	}{
		{"10\n", "fib(10) is 55"},
		{"0\n", "fib(0) is 0"},
		{"1\n", "fib(1) is 1"},
	}
	engines := []map[string]string{
		nil,
		{"FIBBENCH_ENGINE": "wasm"},
		{"FIBBENCH_ENGINE": "wasm", "FIBBENCH_METER_CALLS": "1", "FIBBENCH_LOG_LEVEL": "info"},
	}
	for _, alg := range fib.Algorithms() {
		for _, env := range engines {
			for _, tc := range cases {
				code, out, errOut := run(t, alg, tc.input, env)
				require.Equal(t, 0, code, errOut)
				require.Regexp(t, outputPattern, out)
				require.Contains(t, out, "Enter n: "+tc.line+"\n")
			}
		}
	}
}

func TestQuietByDefault(t *testing.T) {
	code, _, errOut := run(t, fib.AlgorithmIterative, "5", nil)
	require.Equal(t, 0, code)
	require.Empty(t, errOut)
}

func TestMeteredCallsLogged(t *testing.T) {
	env := map[string]string{
		"FIBBENCH_ENGINE":      "wasm",
		"FIBBENCH_METER_CALLS": "true",
		"FIBBENCH_LOG_LEVEL":   "info",
	}
	code, out, errOut := run(t, fib.AlgorithmRecursive, "10", env)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "fib(10) is 55")
	require.Contains(t, errOut, "177 guest calls")
}

func TestWasmModuleFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fib.wasm")
	require.NoError(t, os.WriteFile(path, wasm.BuiltinModule(), 0o644))
	env := map[string]string{"FIBBENCH_ENGINE": "wasm", "FIBBENCH_WASM_PATH": path}
	code, out, errOut := run(t, fib.AlgorithmRecursive, "20", env)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "fib(20) is 6765")
}

func TestFailures(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		env    map[string]string
		stderr string
	}{
		{"not a number", "abc\n", nil, `invalid n \"abc\"`},
		{"empty input", "", nil, "no input"},
		{"out of range", "99999999999\n", nil, "value out of range"},
		{"unknown engine", "5", map[string]string{"FIBBENCH_ENGINE": "gpu"}, "unknown engine"},
		{"bad log level", "5", map[string]string{"FIBBENCH_LOG_LEVEL": "chatty"}, "logger"},
		{"missing module", "5", map[string]string{"FIBBENCH_ENGINE": "wasm", "FIBBENCH_WASM_PATH": "/nonexistent/fib.wasm"}, "stat wasm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out, errOut := run(t, fib.AlgorithmIterative, tc.input, tc.env)
			require.Equal(t, 1, code)
			require.NotContains(t, out, "fib(")
			require.Contains(t, errOut, tc.stderr)
		})
	}
}

func TestRunReturnsOnCancelWhileReading(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	var stdout, stderr bytes.Buffer
	go func() {
		done <- Run(ctx, fib.AlgorithmIterative, Env{
			Stdin:  pr,
			Stdout: &stdout,
			Stderr: &stderr,
			Getenv: func(string) string { return "" },
		})
	}()
	cancel()
	select {
	case code := <-done:
		require.Equal(t, exitInterrupted, code)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWasmDeadlineReportedAsInterrupted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	var stdout, stderr bytes.Buffer
	env := map[string]string{"FIBBENCH_ENGINE": "wasm"}
	code := Run(ctx, fib.AlgorithmRecursive, Env{
		Stdin:  strings.NewReader("46\n"),
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return env[k] },
	})
	require.Equal(t, exitInterrupted, code, stderr.String())
	require.Contains(t, stderr.String(), "interrupted")
	require.NotContains(t, stdout.String(), "fib(46)")
}

func TestSuperviseExitsWhenRunIgnoresCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := false
	block := make(chan struct{})
	defer close(block)
	var stderr bytes.Buffer

	cancel()
	code := supervise(ctx, func() { stopped = true }, 10*time.Millisecond, &stderr, func() int {
		<-block
		return 0
	})
	require.Equal(t, exitInterrupted, code)
	require.True(t, stopped)
	require.Contains(t, stderr.String(), "interrupted")
}

func TestSuperviseReturnsRunCode(t *testing.T) {
	code := supervise(context.Background(), func() {}, time.Second, io.Discard, func() int { return 1 })
	require.Equal(t, 1, code)
}

func TestInterrupted(t *testing.T) {
	require.True(t, interrupted(fmt.Errorf("compute: %w", context.Canceled)))
	require.True(t, interrupted(fmt.Errorf("call fib_recursive: %w", sys.NewExitError(sys.ExitCodeContextCanceled))))
	require.True(t, interrupted(sys.NewExitError(sys.ExitCodeDeadlineExceeded)))
	require.False(t, interrupted(sys.NewExitError(1)))
	require.False(t, interrupted(errors.New("boom")))
}
