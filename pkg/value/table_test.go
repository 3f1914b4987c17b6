package value

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	tab := NewTable()
	key := NewRawString("greeting")

	_, ok := tab.Get(key)
	assert.False(t, ok)

	isNew := tab.Set(key, Number(1))
	assert.True(t, isNew)
	assert.Equal(t, 1, tab.Count())

	v, ok := tab.Get(key)
	require.True(t, ok)
	assert.Equal(t, Number(1), v)

	isNew = tab.Set(key, Number(2))
	assert.False(t, isNew)
	assert.Equal(t, 1, tab.Count())

	assert.True(t, tab.Delete(key))
	_, ok = tab.Get(key)
	assert.False(t, ok)
	assert.False(t, tab.Delete(key))
}

// TestTableTombstoneDoesNotBreakProbing inserts and deletes a key, then
// checks that a different key hashing to the same slot is still found
// past the resulting tombstone.
func TestTableTombstoneDoesNotBreakProbing(t *testing.T) {
	tab := NewTable()
	a := NewRawString("a")
	b := NewRawString("b")
	a.Hash, b.Hash = 1, 1 // force a collision regardless of content hash

	tab.Set(a, Number(1))
	tab.Set(b, Number(2))
	tab.Delete(a)

	v, ok := tab.Get(b)
	require.True(t, ok)
	assert.Equal(t, Number(2), v)
}

func TestTableGrowsAndPreservesEntries(t *testing.T) {
	tab := NewTable()
	keys := make([]*ObjString, 0, 64)
	for i := 0; i < 64; i++ {
		s := NewRawString(fmt.Sprintf("key%d", i))
		keys = append(keys, s)
		tab.Set(s, Number(float64(i)))
	}

	for i, k := range keys {
		v, ok := tab.Get(k)
		require.True(t, ok)
		assert.Equal(t, Number(float64(i)), v)
	}
	assert.Equal(t, 64, tab.Count())
}

func TestTableFindString(t *testing.T) {
	tab := NewTable()
	s := NewRawString("hello")
	tab.Set(s, Bool(true))

	found := tab.FindString("hello", HashString("hello"))
	assert.Same(t, s, found)

	assert.Nil(t, tab.FindString("nope", HashString("nope")))
}

func TestTableRemoveWhite(t *testing.T) {
	tab := NewTable()
	marked := NewRawString("kept")
	marked.Marked = true
	unmarked := NewRawString("swept")

	tab.Set(marked, Nil)
	tab.Set(unmarked, Nil)

	tab.RemoveWhite()

	assert.NotNil(t, tab.FindString("kept", marked.Hash))
	assert.Nil(t, tab.FindString("swept", unmarked.Hash))
}

func TestValueEqualityAndTruthiness(t *testing.T) {
	assert.True(t, Equal(Nil, Nil))
	assert.True(t, Equal(Bool(true), Bool(true)))
	assert.False(t, Equal(Bool(true), Bool(false)))
	assert.True(t, Equal(Number(1), Number(1)))
	assert.False(t, Equal(Number(1), Number(2)))
	assert.False(t, Equal(Nil, Bool(false)))

	assert.True(t, Nil.IsFalsey())
	assert.True(t, Bool(false).IsFalsey())
	assert.False(t, Bool(true).IsFalsey())
	assert.False(t, Number(0).IsFalsey())

	a := NewRawString("x")
	b := NewRawString("x")
	assert.False(t, Equal(Obj(a), Obj(b)), "distinct objects with equal content are not Equal; only interning makes them identical")
}

func TestNumberFormatting(t *testing.T) {
	assert.Equal(t, "3", Number(3).String())
	assert.Equal(t, "3.5", Number(3.5).String())
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "true", Bool(true).String())
}
