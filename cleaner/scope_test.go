package cleaner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeReleasesInReverseOrder(t *testing.T) {
	var order []int
	s := NewScope()
	s.Defer(func() error { order = append(order, 1); return nil })
	s.Defer(func() error { order = append(order, 2); return nil })
	s.Defer(func() error { order = append(order, 3); return nil })

	require := assert.New(t)
	require.NoError(s.Close())
	require.Equal([]int{3, 2, 1}, order)
}

func TestScopeReturnsFirstError(t *testing.T) {
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	s := NewScope()
	s.Defer(func() error { return boom2 })
	s.Defer(func() error { return boom1 })

	err := s.Close()
	assert.ErrorIs(t, err, boom1)
}

func TestScopeCloseIsIdempotent(t *testing.T) {
	calls := 0
	s := NewScope()
	s.Defer(func() error { calls++; return nil })
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, calls)
}
