package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p, err := paginate(items, "", 0)
	require.NoError(t, err)
	assert.Equal(t, items, p.Items)
	assert.Nil(t, p.NextCursor)

	p, err = paginate(items, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, p.Items)
	require.NotNil(t, p.NextCursor)
	assert.Equal(t, "2", *p.NextCursor)

	p, err = paginate(items, "4", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, p.Items)
	assert.Nil(t, p.NextCursor)

	p, err = paginate(items, "5", 2)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)

	_, err = paginate(items, "-1", 2)
	assert.ErrorIs(t, err, errInvalidCursor)
	_, err = paginate(items, "6", 2)
	assert.ErrorIs(t, err, errInvalidCursor)
}

func TestNewPage_NormalizesNil(t *testing.T) {
	p := NewPage[string](nil)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}
