package wasm

// 内置模块导出 fib_iterative 与 fib_recursive，签名均为 (i32) -> i32。
// 模块直接由操作码拼装，不依赖 Wasm 工具链；examples/wasm-tinygo/fib 可用 TinyGo 构建等价模块。

const (
	ExportIterative = "fib_iterative"
	ExportRecursive = "fib_recursive"
	ExportFallback  = "fib"
)

const (
	sectionType     = 0x01
	sectionFunction = 0x03
	sectionExport   = 0x07
	sectionCode     = 0x0a

	valI32     = 0x7f
	funcType   = 0x60
	exportFunc = 0x00
	blockEmpty = 0x40

	opIf       = 0x04
	opLoop     = 0x03
	opEnd      = 0x0b
	opBrIf     = 0x0d
	opReturn   = 0x0f
	opCall     = 0x10
	opLocalGet = 0x20
	opLocalSet = 0x21
	opLocalTee = 0x22
	opI32Const = 0x41
	opI32LeS   = 0x4c
	opI32Add   = 0x6a
	opI32Sub   = 0x6b
)

// baseCase: if n <= 1 { return n }
var baseCase = []byte{
	opLocalGet, 0, opI32Const, 1, opI32LeS,
	opIf, blockEmpty,
	opLocalGet, 0, opReturn,
	opEnd,
}

// iterativeBody 的局部变量：1=a 2=b 3=c 4=剩余步数。
// 计数器从 n-1 递减，n = MaxInt32 时也不会溢出。
var iterativeBody = concat(
	[]byte{1, 4, valI32},
	baseCase,
	[]byte{
		opI32Const, 1, opLocalSet, 2,
		opLocalGet, 0, opI32Const, 1, opI32Sub, opLocalSet, 4,
		opLoop, blockEmpty,
		opLocalGet, 1, opLocalGet, 2, opI32Add, opLocalSet, 3,
		opLocalGet, 2, opLocalSet, 1,
		opLocalGet, 3, opLocalSet, 2,
		opLocalGet, 4, opI32Const, 1, opI32Sub, opLocalTee, 4,
		opBrIf, 0,
		opEnd,
		opLocalGet, 2,
		opEnd,
	},
)

// recursiveBody: fib(n-2) + fib(n-1)，递归调用函数索引 1（自身）。
var recursiveBody = concat(
	[]byte{0},
	baseCase,
	[]byte{
		opLocalGet, 0, opI32Const, 2, opI32Sub, opCall, 1,
		opLocalGet, 0, opI32Const, 1, opI32Sub, opCall, 1,
		opI32Add,
		opEnd,
	},
)

// builtinModule 是上述模块的二进制编码。
var builtinModule = buildModule()

// BuiltinModule 返回内置模块字节的副本。
func BuiltinModule() []byte {
	return concat(builtinModule)
}

func buildModule() []byte {
	return concat(
		[]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		section(sectionType, []byte{1, funcType, 1, valI32, 1, valI32}),
		section(sectionFunction, []byte{2, 0, 0}),
		section(sectionExport, concat(
			[]byte{2},
			name(ExportIterative), []byte{exportFunc, 0},
			name(ExportRecursive), []byte{exportFunc, 1},
		)),
		section(sectionCode, concat(
			[]byte{2},
			vector(iterativeBody),
			vector(recursiveBody),
		)),
	)
}

func section(id byte, payload []byte) []byte {
	return concat([]byte{id}, vector(payload))
}

// vector 在 b 前加上无符号 LEB128 编码的长度。
func vector(b []byte) []byte {
	return concat(uleb128(uint32(len(b))), b)
}

func name(s string) []byte {
	return vector([]byte(s))
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		out = append(out, c)
		if v == 0 {
			return out
		}
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
