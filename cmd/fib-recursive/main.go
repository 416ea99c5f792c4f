package main

import (
	"os"

	"fibbench/internal/cli"
	"fibbench/internal/fib"
)

// main 读取 n，以朴素双递归计算 fib(n) 并输出耗时。
func main() {
	os.Exit(cli.Main(fib.AlgorithmRecursive))
}
