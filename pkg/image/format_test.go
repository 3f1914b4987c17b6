package image_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/image"
	"github.com/kristofer/smog/pkg/vm"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := vm.New()
	defer src.Free()

	fn, err := compiler.Compile(src, `
fun add(a, b) {
  return a + b;
}
print add(1, 2);
`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, image.Encode(fn, &buf))

	var out bytes.Buffer
	dst := vm.New(vm.WithStdout(&out))
	defer dst.Free()

	decoded, err := image.Decode(&buf, dst.InternString)
	require.NoError(t, err)

	require.NoError(t, dst.Run(decoded))
	assert.Equal(t, "3\n", out.String())
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	v := vm.New()
	defer v.Free()

	_, err := image.Decode(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 1}), v.InternString)
	assert.Error(t, err)
}
