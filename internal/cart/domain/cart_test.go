package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddLine_MergesSameProduct(t *testing.T) {
	cart := NewCart("user-7")

	cart.AddLine("p-1", 2)
	cart.AddLine("p-1", 3)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
}

func TestCart_AddLine_KeepsInsertionOrder(t *testing.T) {
	cart := NewCart("user-7")

	cart.AddLine("p-2", 1)
	cart.AddLine("p-1", 1)
	cart.AddLine("p-3", 1)
	cart.AddLine("p-1", 4)

	require.Len(t, cart.Lines, 3)
	assert.Equal(t, "p-2", cart.Lines[0].ProductID)
	assert.Equal(t, "p-1", cart.Lines[1].ProductID)
	assert.Equal(t, "p-3", cart.Lines[2].ProductID)
	assert.Equal(t, 5, cart.Lines[1].Quantity)
}

func TestCart_Clear(t *testing.T) {
	cart := NewCart("user-7")
	cart.AddLine("p-1", 2)
	require.False(t, cart.IsEmpty())

	cart.Clear()

	assert.True(t, cart.IsEmpty())
	assert.Equal(t, "user-7", cart.UserID)
}
