package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

func menuItem(name string, price float64) model.MenuItem {
	return model.MenuItem{Name: name, Price: price}
}

func TestCartTotalIsSumOfEntries(t *testing.T) {
	c := New()
	c.Add(menuItem("Pizza", 7.5))
	c.Add(menuItem("Pizza", 7.5))
	c.Add(menuItem("Birra", 3.2))

	assert.Equal(t, 3, c.Len())
	assert.True(t, decimal.RequireFromString("18.2").Equal(c.Total()), "total = %s", c.Total())
}

func TestCartRemoveKeepsOrder(t *testing.T) {
	c := New()
	c.Add(menuItem("A", 1.1))
	c.Add(menuItem("B", 2.2))
	c.Add(menuItem("C", 3.3))
	c.Add(menuItem("D", 4.4))

	before := c.Total()
	removed := c.Items()[1]

	require.NoError(t, c.Remove(1))

	names := make([]string, 0, c.Len())
	for _, it := range c.Items() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"A", "C", "D"}, names)

	diff := before.Sub(c.Total())
	assert.True(t, diff.Equal(decimal.NewFromFloat(removed.Price)), "total decreased by %s", diff)
}

func TestCartRemoveOutOfRange(t *testing.T) {
	c := New()
	c.Add(menuItem("A", 1))

	assert.Error(t, c.Remove(1))
	assert.Error(t, c.Remove(-1))
	assert.Equal(t, 1, c.Len())
}

func TestCartItemsReturnsCopy(t *testing.T) {
	c := New()
	c.Add(menuItem("A", 1))

	items := c.Items()
	items[0].Name = "changed"

	assert.Equal(t, "A", c.Items()[0].Name)
}

func TestCartLineItems(t *testing.T) {
	c := New()
	c.Add(menuItem("Pizza", 7.5))
	c.Add(menuItem("Pizza", 7.5))

	lines := c.LineItems()
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, model.LineItem{ProductName: "Pizza", Quantity: 1, Price: 7.5}, l)
	}

	c.Reset()
	assert.Zero(t, c.Len())
	assert.True(t, c.Total().IsZero())
}
