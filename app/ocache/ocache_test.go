package ocache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	closed bool
}

func (o *testObject) Close() error {
	o.closed = true
	return nil
}

func TestOCache_AddGet(t *testing.T) {
	c := New()
	obj := &testObject{}
	require.NoError(t, c.Add("one", obj))
	t.Run("get returns the same object", func(t *testing.T) {
		got, err := c.Get("one")
		require.NoError(t, err)
		assert.Same(t, obj, got)
	})
	t.Run("duplicate id", func(t *testing.T) {
		assert.ErrorIs(t, c.Add("one", &testObject{}), ErrExists)
	})
	t.Run("unknown id", func(t *testing.T) {
		_, err := c.Get("missing")
		assert.ErrorIs(t, err, ErrNotExists)
	})
	assert.Equal(t, 1, c.Len())
}

func TestOCache_Remove(t *testing.T) {
	c := New()
	obj := &testObject{}
	require.NoError(t, c.Add("one", obj))

	ok, err := c.Remove("one")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, obj.closed)

	ok, err = c.Remove("one")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOCache_ForEach(t *testing.T) {
	c := New()
	require.NoError(t, c.Add("a", &testObject{}))
	require.NoError(t, c.Add("b", &testObject{}))
	var seen []string
	c.ForEach(func(id string, obj Object) bool {
		seen = append(seen, id)
		return true
	})
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestOCache_Close(t *testing.T) {
	c := New()
	obj := &testObject{}
	require.NoError(t, c.Add("one", obj))
	require.NoError(t, c.Close())

	assert.True(t, obj.closed)
	assert.ErrorIs(t, c.Add("two", &testObject{}), ErrClosed)
	_, err := c.Get("one")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Close(), ErrClosed)
}
