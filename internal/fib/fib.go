package fib

import (
	"errors"
	"fmt"
)

// Algorithm 标识一种斐波那契计算方式。
type Algorithm string

const (
	AlgorithmIterative Algorithm = "iterative"
	AlgorithmRecursive Algorithm = "recursive"
)

// ErrUnknownAlgorithm 表示算法名称未注册。
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Func 计算 fib(n)，溢出时按 int32 补码回绕。
type Func func(n int32) int32

var registry = map[Algorithm]Func{
	AlgorithmIterative: Iterative,
	AlgorithmRecursive: Recursive,
}

// Iterative 以线性循环计算 fib(n)，n <= 1 时原样返回 n（包括负数）。
func Iterative(n int32) int32 {
	if n <= 1 {
		return n
	}
	var a, b int32 = 0, 1
	// 循环变量用 int，n = MaxInt32 时不会回绕。
	for i := 2; i <= int(n); i++ {
		c := a + b
		a = b
		b = c
	}
	return b
}

// Recursive 以朴素双递归计算 fib(n)，不做任何缓存。
func Recursive(n int32) int32 {
	if n <= 1 {
		return n
	}
	return Recursive(n-2) + Recursive(n-1)
}

// Lookup 返回算法对应的实现。
func Lookup(a Algorithm) (Func, error) {
	fn, ok := registry[a]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
	return fn, nil
}

// Algorithms 按固定顺序列出全部算法。
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmIterative, AlgorithmRecursive}
}
