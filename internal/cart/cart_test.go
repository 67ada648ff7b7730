package cart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddMergesByID(t *testing.T) {
	c := New()

	require.NoError(t, c.AddItem(Item{ID: "p1", Name: "Mug", Price: 8.5, Quantity: 2}))
	require.NoError(t, c.AddItem(Item{ID: "p2", Name: "Tee", Price: 20}))
	require.NoError(t, c.AddItem(Item{ID: "p1", Name: "Mug", Price: 8.5, Quantity: 1}))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity, "missing quantity defaults to one")

	assert.Equal(t, 4, c.TotalItems())
	assert.InDelta(t, 45.5, c.TotalPrice(), 0.0001)
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		wantItems int
		wantQty   int
	}{
		{name: "increase", quantity: 5, wantItems: 1, wantQty: 5},
		{name: "zero removes", quantity: 0, wantItems: 0},
		{name: "negative removes", quantity: -3, wantItems: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			require.NoError(t, c.AddItem(Item{ID: "p1", Price: 1, Quantity: 2}))

			require.NoError(t, c.UpdateQuantity("p1", tt.quantity))

			items := c.Items()
			require.Len(t, items, tt.wantItems)
			if tt.wantItems > 0 {
				assert.Equal(t, tt.wantQty, items[0].Quantity)
			}
		})
	}
}

func TestCart_UpdateUnknownIsNoop(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(Item{ID: "p1", Quantity: 1}))
	require.NoError(t, c.UpdateQuantity("missing", 4))
	assert.Equal(t, 1, c.TotalItems())
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(Item{ID: "p1"}))
	require.NoError(t, c.AddItem(Item{ID: "p2"}))

	require.NoError(t, c.RemoveItem("p1"))
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)

	require.NoError(t, c.Clear())
	assert.Empty(t, c.Items())
	assert.Zero(t, c.TotalPrice())
}

func TestCart_ItemsReturnsCopy(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(Item{ID: "p1", Quantity: 1}))

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestCart_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopfront", "cart.json")

	c, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, c.Items(), "missing file opens an empty cart")

	require.NoError(t, c.AddItem(Item{
		ID:         "p1",
		Name:       "Mug",
		Price:      8.5,
		Quantity:   2,
		Attributes: map[string]string{"color": "blue"},
	}))

	reopened, err := Open(path)
	require.NoError(t, err)

	items := reopened.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Mug", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "blue", items[0].Attributes["color"])

	require.NoError(t, reopened.Clear())
	again, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, again.Items())
}

func TestCart_OpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}
