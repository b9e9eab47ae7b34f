package persist_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/persist"
)

func TestStream_PrimitivesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := persist.NewWriter(&buf)
	w.Tag(7)
	w.Int(-42)
	w.Float(2.5)
	w.Bool(true)
	w.String("granary")
	w.Ints([]int{3, 1, 2})
	require.NoError(t, w.Err())

	r := persist.NewReader(&buf)
	assert.Equal(t, persist.Tag(7), r.Tag())
	assert.Equal(t, -42, r.Int())
	assert.Equal(t, 2.5, r.Float())
	assert.True(t, r.Bool())
	assert.Equal(t, "granary", r.String())
	assert.Equal(t, []int{3, 1, 2}, r.Ints())
	require.NoError(t, r.Err())
}

func TestReader_TruncatedStreamIsSticky(t *testing.T) {
	r := persist.NewReader(bytes.NewReader([]byte{1, 2}))
	_ = r.Int()
	require.Error(t, r.Err())
	assert.Equal(t, 0, r.Int())
	assert.Error(t, r.Err())
}

func TestReader_RejectsHugeLength(t *testing.T) {
	var buf bytes.Buffer
	w := persist.NewWriter(&buf)
	w.Int(1 << 40)
	r := persist.NewReader(&buf)
	_ = r.Ints()
	assert.Error(t, r.Err())
}

func TestUnknownTagError_Wraps(t *testing.T) {
	err := persist.UnknownTagError("dependency", 99)
	assert.True(t, errors.Is(err, persist.ErrUnknownTag))
	assert.Contains(t, err.Error(), "dependency")
}
