package wasm

import (
	"context"
	"slices"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

// callMeter 统计进入某个导出函数的次数（包括递归自调用）。
// 导出名在编译后才确定，因此监听器挂在所有函数上，在 Before 中过滤。
type callMeter struct {
	export string
	count  uint64
}

func (m *callMeter) NewFunctionListener(api.FunctionDefinition) experimental.FunctionListener {
	return m
}

func (m *callMeter) Before(_ context.Context, _ api.Module, def api.FunctionDefinition, _ []uint64, _ experimental.StackIterator) {
	if m.export != "" && slices.Contains(def.ExportNames(), m.export) {
		m.count++
	}
}

func (*callMeter) After(context.Context, api.Module, api.FunctionDefinition, []uint64) {}

func (*callMeter) Abort(context.Context, api.Module, api.FunctionDefinition, error) {}
