package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/vm"
)

func run(t *testing.T, source string) string {
	t.Helper()
	var out bytes.Buffer
	v := vm.New(vm.WithStdout(&out))
	defer v.Free()

	result, err := Interpret(v, source)
	require.Equal(t, OK, result, "interpret error: %v", err)
	require.NoError(t, err)
	return out.String()
}

func TestArithmeticAndPrint(t *testing.T) {
	out := run(t, `print 1 + 2 * 3;`)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out := run(t, `print "foo" + "bar";`)
	assert.Equal(t, "foobar\n", out)
}

func TestClosuresCaptureByReference(t *testing.T) {
	src := `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
var counter = makeCounter();
print counter();
print counter();
print counter();
`
	out := run(t, src)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestClassesAndMethods(t *testing.T) {
	src := `
class Greeter {
  init(name) {
    this.name = name;
  }
  greet() {
    return "hello " + this.name;
  }
}
var g = Greeter("world");
print g.greet();
`
	out := run(t, src)
	assert.Equal(t, "hello world\n", out)
}

func TestSingleInheritanceAndSuper(t *testing.T) {
	src := `
class Animal {
  speak() {
    return "...";
  }
}
class Dog < Animal {
  speak() {
    return "woof (" + super.speak() + ")";
  }
}
print Dog().speak();
`
	out := run(t, src)
	assert.Equal(t, "woof (...)\n", out)
}

func TestForLoop(t *testing.T) {
	src := `
var sum = 0;
for (var i = 0; i < 5; i = i + 1) {
  sum = sum + i;
}
print sum;
`
	out := run(t, src)
	assert.Equal(t, "10\n", out)
}

func TestFieldsShadowMethods(t *testing.T) {
	src := `
class Box {
  value() {
    return "method";
  }
}
var b = Box();
b.value = "field";
print b.value;
`
	out := run(t, src)
	assert.Equal(t, "field\n", out)
}

func TestStackOverflowIsRuntimeError(t *testing.T) {
	v := vm.New()
	defer v.Free()

	src := `
fun recurse() {
  return recurse();
}
recurse();
`
	result, err := Interpret(v, src)
	assert.Equal(t, RuntimeError, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stack overflow")
}

func TestCompileErrorReturnsDiagnostic(t *testing.T) {
	v := vm.New()
	defer v.Free()

	result, err := Interpret(v, `var x = ;`)
	assert.Equal(t, CompileError, result)
	require.Error(t, err)
}

func TestRuntimeErrorUndefinedVariable(t *testing.T) {
	v := vm.New()
	defer v.Free()

	result, err := Interpret(v, `print undefined;`)
	assert.Equal(t, RuntimeError, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable")
}

func TestDuplicateLocalIsCompileError(t *testing.T) {
	v := vm.New()
	defer v.Free()

	result, err := Interpret(v, `{ var a = 1; var a = 2; }`)
	assert.Equal(t, CompileError, result)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Already a variable"))
}

func TestVMReusableAfterNormalTermination(t *testing.T) {
	v := vm.New()
	defer v.Free()

	_, err := Interpret(v, `var x = 1; { var y = 2; print x + y; }`)
	require.NoError(t, err)
	// Stack depth is unexported, so it is not inspected here (pkg/vm's
	// TestRunLeavesStackEmptyOnNormalReturn checks it). Run resets the
	// stack before it starts, so this only shows that a second,
	// independent interpret on the same VM still succeeds.
	_, err = Interpret(v, `print 1;`)
	require.NoError(t, err)
}
