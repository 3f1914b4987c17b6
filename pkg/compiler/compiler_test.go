package compiler

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/vm"
)

func TestCompileSimpleScript(t *testing.T) {
	v := vm.New()
	defer v.Free()

	fn, err := Compile(v, `print 1 + 2;`)
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Nil(t, fn.Name, "the top-level script function has no name")
}

func TestTooManyLocalsIsCompileError(t *testing.T) {
	v := vm.New()
	defer v.Free()

	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < 257; i++ {
		b.WriteString("var a")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" = 0;\n")
	}
	b.WriteString("}\n")

	_, err := Compile(v, b.String())
	require.Error(t, err)
	ce, ok := err.(*CompileError)
	require.True(t, ok)
	found := false
	for _, d := range ce.Diagnostics {
		if strings.Contains(d.Message, "Too many local variables") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReadLocalInOwnInitializerIsCompileError(t *testing.T) {
	v := vm.New()
	defer v.Free()

	_, err := Compile(v, `{ var a = a; }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own initializer")
}

func TestTopLevelReturnIsCompileError(t *testing.T) {
	v := vm.New()
	defer v.Free()

	_, err := Compile(v, `return 1;`)
	require.Error(t, err)
}

func TestThisOutsideClassIsCompileError(t *testing.T) {
	v := vm.New()
	defer v.Free()

	_, err := Compile(v, `print this;`)
	require.Error(t, err)
}

func TestInheritingFromSelfIsCompileError(t *testing.T) {
	v := vm.New()
	defer v.Free()

	_, err := Compile(v, `class Oops < Oops {}`)
	require.Error(t, err)
}
