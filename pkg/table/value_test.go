package table

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{"x", "x"},
		{true, true},
		{3, int64(3)},
		{uint8(4), int64(4)},
		{2.5, 2.5},
		{math.NaN(), nil},
		{json.Number("12"), int64(12)},
		{json.Number("1.25"), 1.25},
		{[]byte("raw"), "raw"},
		{[]int{1, 2}, "[1 2]"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%#v)", tc.in)
	}
}

func TestInferValue(t *testing.T) {
	assert.Nil(t, InferValue("  "))
	assert.Equal(t, int64(42), InferValue("42"))
	assert.Equal(t, 0.5, InferValue("0.5"))
	assert.Equal(t, true, InferValue("TRUE"))
	assert.Equal(t, "Alice", InferValue(" Alice "))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(int64(1), 1.0))
	assert.True(t, Equal("a", "a"))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal("1", 1))
	assert.False(t, Equal(nil, 0))
	assert.False(t, Equal(true, 1))
}

func TestCompareValues(t *testing.T) {
	c, err := CompareValues(int64(2), 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = CompareValues("apple", "banana")
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = CompareValues(false, true)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	_, err = CompareValues("a", 1)
	assert.True(t, errors.Is(err, ErrIncomparable))

	_, err = CompareValues(nil, 1)
	assert.True(t, errors.Is(err, ErrIncomparable))
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key(int64(3)), Key(3.0))
	assert.NotEqual(t, Key("3"), Key(3))
}
