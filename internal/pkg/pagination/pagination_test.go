package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClampsValues(t *testing.T) {
	p := New(0, 1000)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)

	p = New(3, 0)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 2*DefaultLimit, p.Offset)
}

func TestGetMeta(t *testing.T) {
	m := GetMeta(New(2, 10), 25)
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasNext)
	assert.True(t, m.HasPrev)

	m = GetMeta(New(1, 10), 0)
	assert.Equal(t, 0, m.TotalPages)
	assert.False(t, m.HasNext)
}
