package table_test

import (
	"testing"

	"github.com/mna/nova/lang/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIdempotent(t *testing.T) {
	tb := table.New()
	idx1 := tb.Insert("x")
	idx2 := tb.Insert("y")
	idx3 := tb.Insert("x")

	assert.Equal(t, idx1, idx3)
	assert.NotEqual(t, idx1, idx2)
	assert.Equal(t, 2, tb.Len())
}

func TestGetIndexAndRetrieve(t *testing.T) {
	tb := table.New()
	tb.Insert("a")
	tb.Insert("b")

	idx, ok := tb.GetIndex("b")
	require.True(t, ok)
	assert.Equal(t, "b", tb.Retrieve(idx))

	_, ok = tb.GetIndex("c")
	assert.False(t, ok)
}

func TestCloneIndependence(t *testing.T) {
	tb := table.New()
	tb.Insert("a")

	clone := tb.Clone()
	clone.Insert("b")

	assert.Equal(t, 1, tb.Len())
	assert.Equal(t, 2, clone.Len())
	assert.True(t, tb.Has("a"))
	assert.False(t, tb.Has("b"))
}
