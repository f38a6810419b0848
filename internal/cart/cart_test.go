package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeItem_NewProduct(t *testing.T) {
	items := []Item{{ProductID: 1, Product: "Keyboard", Quantity: 1}}

	merged := MergeItem(items, Item{ProductID: 2, Product: "Mouse", Quantity: 2})

	require.Len(t, merged, 2)
	assert.Equal(t, 2, merged[1].ProductID)
	assert.Equal(t, 2, merged[1].Quantity)
}

func TestMergeItem_ExistingProduct(t *testing.T) {
	items := []Item{{ProductID: 1, Product: "Keyboard", Quantity: 1}}

	merged := MergeItem(items, Item{ProductID: 1, Product: "Keyboard", Quantity: 3})

	require.Len(t, merged, 1)
	assert.Equal(t, 4, merged[0].Quantity)
}

func TestMergeItem_EmptyCart(t *testing.T) {
	merged := MergeItem(nil, Item{ProductID: 5, Quantity: 1})

	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].ProductID)
}
