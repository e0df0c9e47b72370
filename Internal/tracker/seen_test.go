package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeen_Idempotent(t *testing.T) {
	s := NewSeen()

	assert.True(t, s.IsNew("https://example.com/a"))

	s.MarkSeen("https://example.com/a")
	s.MarkSeen("https://example.com/a")

	assert.False(t, s.IsNew("https://example.com/a"))
	assert.True(t, s.IsNew("https://example.com/b"))
	assert.Equal(t, 1, s.Len())
}

func TestSeen_LoadAndIDs(t *testing.T) {
	s := Load([]string{"b", "a", "", "b"})

	assert.Equal(t, []string{"a", "b"}, s.IDs())
	assert.False(t, s.IsNew("a"))
}

func TestSeen_RoundTrip(t *testing.T) {
	s := Load([]string{"x", "y", "z"})
	assert.Equal(t, s.IDs(), Load(s.IDs()).IDs())
}

func TestSeen_Restore(t *testing.T) {
	s := Load([]string{"a"})
	snap := s.Snapshot()

	s.MarkSeen("b")
	s.MarkSeen("c")
	s.Restore(snap)

	assert.Equal(t, []string{"a"}, s.IDs())
	assert.True(t, s.IsNew("b"))
}
