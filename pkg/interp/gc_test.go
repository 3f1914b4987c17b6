package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/vm"
)

// TestGCSurvivesStressAndStaysBounded allocates a large number of
// short-lived strings under SMOG_GC_STRESS-equivalent settings
// (forcing a collection on every allocation) and checks the program
// still produces the right answer and the heap doesn't grow without
// bound, using the gcHeapSize() native the GC smoke test scenario
// (spec §8) calls for.
func TestGCSurvivesStressAndStaysBounded(t *testing.T) {
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out), vm.WithGCStress(true))
	defer v.Free()

	src := `
var last = "";
for (var i = 0; i < 2000; i = i + 1) {
  last = "item-" + type(i);
}
print last;
print gcHeapSize() < 1000000;
`
	result, err := Interpret(v, src)
	require.NoError(t, err)
	require.Equal(t, OK, result)
	assert.Equal(t, "item-number\ntrue\n", out.String())
}

// TestStringInterningIdentity checks that a string literal and an
// equal string built at runtime by concatenation are the same
// *ObjString, so == on smog strings (pointer comparison under the
// hood) reports them equal (spec §3).
func TestStringInterningIdentity(t *testing.T) {
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out))
	defer v.Free()

	result, err := Interpret(v, `print "hello" == "hel" + "lo";`)
	require.NoError(t, err)
	require.Equal(t, OK, result)
	assert.Equal(t, "true\n", out.String())
}

func TestGCSmokeWithMixedGarbage(t *testing.T) {
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out), vm.WithGCStress(true))
	defer v.Free()

	src := `
class Node {
  init(value) {
    this.value = value;
  }
}
var sum = 0;
for (var i = 0; i < 500; i = i + 1) {
  var n = Node(i);
  sum = sum + n.value;
}
print sum;
`
	result, err := Interpret(v, src)
	require.NoError(t, err)
	require.Equal(t, OK, result)
	assert.Equal(t, "124750\n", out.String())
}
