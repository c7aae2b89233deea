package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowList_Contains(t *testing.T) {
	list := NewAllowList([]string{"1434253936600289302", "987654321098765432", "987654321098765432", "Mod"})

	assert.Equal(t, 3, list.Len())
	assert.True(t, list.Contains("1434253936600289302"))
	assert.True(t, list.Contains("Mod"))
	assert.False(t, list.Contains("mod"))
	assert.False(t, list.Contains(" 1434253936600289302"))
	assert.False(t, list.Contains("14342539366002893"))
	assert.False(t, list.Contains(""))
}

func TestAllowList_Empty(t *testing.T) {
	var zero AllowList
	assert.False(t, zero.Contains("anything"))
	assert.False(t, NewAllowList(nil).Contains("anything"))
	assert.False(t, NewAllowList([]string{""}).Contains(""))
}
