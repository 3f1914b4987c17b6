package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/opcode"
	"github.com/kristofer/smog/pkg/value"
)

func TestInternStringDedupesByContent(t *testing.T) {
	v := New()
	defer v.Free()

	a := v.InternString("hello")
	b := v.InternString("hel" + "lo")
	assert.Same(t, a, b)
}

func TestInternStringAccountsBytes(t *testing.T) {
	v := New()
	defer v.Free()

	before := v.BytesAllocated()
	v.InternString("a brand new string nobody has interned yet")
	assert.Greater(t, v.BytesAllocated(), before)
}

func TestPushPopCompilerRootsAreLIFO(t *testing.T) {
	v := New()
	defer v.Free()

	fn1 := v.NewFunction()
	fn2 := v.NewFunction()
	v.PushCompilerRoot(fn1)
	v.PushCompilerRoot(fn2)
	require.Len(t, v.compilerRoots, 2)
	v.PopCompilerRoot()
	require.Len(t, v.compilerRoots, 1)
	assert.Same(t, fn1, v.compilerRoots[0])
	v.PopCompilerRoot()
	assert.Empty(t, v.compilerRoots)
}

func TestRunLeavesStackEmptyOnNormalReturn(t *testing.T) {
	v := New()
	defer v.Free()

	fn := v.NewFunction()
	idx := fn.Chunk.AddConstant(value.Number(42))
	fn.Chunk.Write(byte(opcode.Constant), 1)
	fn.Chunk.Write(byte(idx), 1)
	fn.Chunk.Write(byte(opcode.Pop), 1)
	fn.Chunk.Write(byte(opcode.Nil), 1)
	fn.Chunk.Write(byte(opcode.Return), 1)

	require.NoError(t, v.Run(fn))
	assert.Equal(t, 0, v.stackTop)
	assert.Equal(t, 0, v.frameCount)
}
