package disasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/disasm"
	"github.com/kristofer/smog/pkg/vm"
)

func TestFunctionListsOpcodesAndNestedFunctions(t *testing.T) {
	v := vm.New()
	defer v.Free()

	fn, err := compiler.Compile(v, `
fun outer() {
  fun inner() {
    return 1;
  }
  return inner();
}
print outer();
`)
	require.NoError(t, err)

	listing := disasm.Function(fn)
	assert.Contains(t, listing, "== <script> ==")
	assert.Contains(t, listing, "== outer ==")
	assert.Contains(t, listing, "== inner ==")
	assert.Contains(t, listing, "RETURN")
}
